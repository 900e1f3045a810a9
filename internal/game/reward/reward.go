// Package reward settles finished combats against a player's persistent profile.
package reward

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// ErrSettlement wraps every failure to apply a combat's outcome.
var ErrSettlement = errors.New("combat settlement failed")

// DefeatHP is the hit points a player is left with after a defeat.
const DefeatHP = 1

// Sink applies settlement effects to persistent player state. Implementations are
// expected to run inside the same transaction that persists the combat.
type Sink interface {
	// ApplyReward grants xp and coins to the player, applying any level-ups, and
	// records a ledger entry for the coins with reason as its description.
	ApplyReward(ctx context.Context, playerID int64, xp, coins int, reason string) error
	// SetCurrentHP stores the player's current hit points, clamped to their maximum.
	SetCurrentHP(ctx context.Context, playerID int64, hp int) error
}

// Kind classifies a settlement.
type Kind string

const (
	KindVictory Kind = "victory"
	KindDefeat  Kind = "defeat"
	KindNone    Kind = "none"
)

// Result describes what a settlement applied.
type Result struct {
	Kind  Kind
	XP    int
	Coins int
	// Defeated lists the names of the monsters the reward was granted for.
	Defeated []string
}

// Message returns the player-facing summary of r.
func (r Result) Message() string {
	switch r.Kind {
	case KindVictory:
		return fmt.Sprintf("Victory! Gained %d experience and %d coins.", r.XP, r.Coins)
	case KindDefeat:
		return "Defeat. You were badly wounded."
	default:
		return "Combat finished."
	}
}

// Reason returns the ledger description for a victory over the given monsters.
func Reason(defeated []string) string {
	return "Reward for defeating " + strings.Join(defeated, ", ")
}

// Settle applies the outcome of a terminal combat for playerID.
//
// A victory grants the summed xp and coin rewards of every monster and then stores the
// player's final combat hit points. A defeat leaves the player at DefeatHP. A fled or
// still-active combat applies nothing.
//
// Precondition: sink and s must be non-nil.
// Postcondition: Returns the applied Result, or an error wrapping ErrSettlement; on
// error the caller must discard every effect of the enclosing transaction.
func Settle(ctx context.Context, sink Sink, playerID int64, s *combat.State) (Result, error) {
	switch s.Status {
	case combat.StatusVictory:
		res := Result{Kind: KindVictory}
		for _, m := range s.Monsters() {
			res.XP += m.XPReward
			res.Coins += m.CoinReward
			res.Defeated = append(res.Defeated, m.Name)
		}
		if err := sink.ApplyReward(ctx, playerID, res.XP, res.Coins, Reason(res.Defeated)); err != nil {
			return Result{}, fmt.Errorf("%w: applying reward: %w", ErrSettlement, err)
		}
		if err := sink.SetCurrentHP(ctx, playerID, s.PlayerHP()); err != nil {
			return Result{}, fmt.Errorf("%w: storing hit points: %w", ErrSettlement, err)
		}
		return res, nil
	case combat.StatusDefeat:
		if err := sink.SetCurrentHP(ctx, playerID, DefeatHP); err != nil {
			return Result{}, fmt.Errorf("%w: storing hit points: %w", ErrSettlement, err)
		}
		return Result{Kind: KindDefeat}, nil
	default:
		return Result{Kind: KindNone}, nil
	}
}
