// Package dice provides the randomness abstraction used by the combat engine.
package dice

// Source is the randomness provider for every combat roll.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Percent rolls 1d100 and reports whether the roll is at or below chance.
// Chances are not clamped: chance >= 100 always succeeds and chance <= 0 never does.
//
// Precondition: src must be non-nil.
// Postcondition: Exactly one value is drawn from src.
func Percent(src Source, chance int) bool {
	return src.Intn(100)+1 <= chance
}

// Between returns a uniformly distributed int in [lo, hi].
// When hi < lo the bounds are swapped.
//
// Precondition: src must be non-nil.
// Postcondition: lo <= result <= hi; exactly one value is drawn from src.
func Between(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + src.Intn(hi-lo+1)
}
