package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every draw at debug level.
// Roller itself satisfies Source, so it can be handed to the combat resolver.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the wrapped Source and logs the bound and the result.
//
// Precondition: n > 0.
// Postcondition: Returns a value in [0, n).
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice roll",
		zap.Int("sides", n),
		zap.Int("result", v+1),
	)
	return v
}
