// Package gameserver exposes combat over HTTP: starting a hunt, submitting turns,
// reading state and fleeing. Every mutation runs inside one store transaction that
// holds the combat's lock.
package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/reward"
	"github.com/cory-johannsen/arena/internal/storage"
)

var (
	// ErrInvalidInput is returned for a malformed turn submission.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCombatNotFound is returned for a missing combat or one owned by another player.
	ErrCombatNotFound = errors.New("combat not found")
	// ErrCombatBusy is returned when another request holds the combat. Retrying may succeed.
	ErrCombatBusy = errors.New("combat is busy")
	// ErrSettlement is returned when a finished combat's reward could not be applied.
	ErrSettlement = errors.New("settlement failed")
	// ErrWrongMode is returned for an operation the combat's mode does not support.
	ErrWrongMode = errors.New("operation not supported in this combat mode")
	// ErrTooWeak is returned when a player with no hit points tries to start a hunt.
	ErrTooWeak = errors.New("player is too weak to fight")
	// ErrPlayerNotFound is returned when the authenticated player has no profile.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNoFreeStats is returned when a player distributes a stat without free points.
	ErrNoFreeStats = errors.New("no free stat points")
)

// CombatStore persists combats and runs turns under an exclusive per-combat lock.
type CombatStore interface {
	Snapshot(ctx context.Context, playerID int64) (character.Snapshot, error)
	Create(ctx context.Context, owner int64, status string, state []byte) (*storage.Combat, error)
	Get(ctx context.Context, id uuid.UUID, owner int64) (*storage.Combat, error)
	Active(ctx context.Context, owner int64) (*storage.Combat, error)
	WithCombat(ctx context.Context, id uuid.UUID, owner int64, fn storage.CombatFunc) error
}

// Notice identifies the player-facing message attached to a View.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeVictory
	NoticeDefeat
	NoticeFled
	NoticeFleeFailed
	NoticeAlreadyFinished
)

// View is the result of a combat operation.
type View struct {
	ID    uuid.UUID
	State *combat.State
	// Existing is set by Begin when the player's active combat was returned
	// instead of a new one.
	Existing bool
	Notice   Notice
	// Settlement is what the turn that ended the combat applied.
	Settlement reward.Result
}

// CombatService drives combats between a player and monsters.
type CombatService struct {
	store    CombatStore
	monsters combat.MonsterPicker
	src      dice.Source
	opts     combat.BuildOptions
	logLimit int
	logger   *zap.Logger
}

// NewCombatService creates a CombatService.
//
// Precondition: store, monsters, src and logger must be non-nil.
// Postcondition: Returns a non-nil CombatService.
func NewCombatService(
	store CombatStore,
	monsters combat.MonsterPicker,
	src dice.Source,
	opts combat.BuildOptions,
	logLimit int,
	logger *zap.Logger,
) *CombatService {
	if logLimit <= 0 {
		logLimit = combat.DefaultLogLimit
	}
	return &CombatService{
		store:    store,
		monsters: monsters,
		src:      src,
		opts:     opts,
		logLimit: logLimit,
		logger:   logger,
	}
}

// Begin starts a hunt for owner. A player already in an active combat gets that
// combat back with Existing set.
//
// Postcondition: Returns the combat view, ErrTooWeak when the player has no hit
// points, or ErrPlayerNotFound.
func (s *CombatService) Begin(ctx context.Context, owner int64) (*View, error) {
	if v, err := s.existing(ctx, owner); err == nil || !errors.Is(err, storage.ErrCombatNotFound) {
		return v, translate(err)
	}

	snap, err := s.store.Snapshot(ctx, owner)
	if err != nil {
		return nil, translate(err)
	}
	if snap.CurrentHP <= 0 {
		return nil, ErrTooWeak
	}
	state, err := combat.Build(snap, s.monsters, s.opts, s.src)
	if err != nil {
		return nil, fmt.Errorf("building combat: %w", err)
	}
	blob, err := state.Encode(s.logLimit)
	if err != nil {
		return nil, err
	}

	// Only an active record is settled, so an opening turn that already ended
	// the fight is settled right after the insert.
	rec, err := s.store.Create(ctx, owner, storage.StatusActive, blob)
	if errors.Is(err, storage.ErrActiveCombatExists) {
		// A concurrent hunt won the race.
		return translateView(s.existing(ctx, owner))
	}
	if err != nil {
		return nil, translate(err)
	}
	s.logger.Info("combat started",
		zap.Int64("player", owner),
		zap.String("combat", rec.ID.String()),
		zap.String("mode", string(state.Mode)),
		zap.String("ruleset", state.Ruleset),
	)

	if state.IsTerminal() {
		return s.mutate(ctx, rec.ID, owner, func(*combat.State) (Notice, error) { return NoticeNone, nil })
	}
	return &View{ID: rec.ID, State: state}, nil
}

func (s *CombatService) existing(ctx context.Context, owner int64) (*View, error) {
	rec, err := s.store.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	state, err := combat.Decode(rec.State)
	if err != nil {
		return nil, err
	}
	return &View{ID: rec.ID, State: state, Existing: true}, nil
}

// SubmitTurn resolves the player's turn in combat id. In roster mode the monsters
// due before the player act first, then the player, then the monsters until the
// player is due again. A combat that is already over is returned unchanged.
//
// Postcondition: Returns the updated view, or one of ErrInvalidInput,
// ErrCombatNotFound, ErrCombatBusy, ErrSettlement. On error nothing was persisted.
func (s *CombatService) SubmitTurn(ctx context.Context, id uuid.UUID, owner int64, in combat.TurnInput) (*View, error) {
	return s.mutate(ctx, id, owner, func(state *combat.State) (Notice, error) {
		switch state.Mode {
		case combat.ModeDuel:
			return NoticeNone, combat.ResolveDuelTurn(state, in, s.src)
		default:
			combat.ResolveMonsterTurns(state, s.src)
			if state.IsTerminal() {
				return NoticeNone, nil
			}
			if err := combat.ResolveRosterTurn(state, in, s.src); err != nil {
				return NoticeNone, err
			}
			combat.ResolveMonsterTurns(state, s.src)
			return NoticeNone, nil
		}
	})
}

// Flee spends the player's roster turn on a flee attempt.
//
// Postcondition: Returns the updated view, or ErrWrongMode for a duel.
func (s *CombatService) Flee(ctx context.Context, id uuid.UUID, owner int64) (*View, error) {
	return s.mutate(ctx, id, owner, func(state *combat.State) (Notice, error) {
		if state.Mode != combat.ModeRoster {
			return NoticeNone, combat.ErrWrongMode
		}
		combat.ResolveMonsterTurns(state, s.src)
		if state.IsTerminal() {
			return NoticeNone, nil
		}
		if err := combat.AttemptFlee(state, s.src); err != nil {
			return NoticeNone, err
		}
		if state.Status == combat.StatusFled {
			return NoticeFled, nil
		}
		combat.ResolveMonsterTurns(state, s.src)
		if state.IsTerminal() {
			return NoticeNone, nil
		}
		return NoticeFleeFailed, nil
	})
}

// State returns combat id without modifying it.
func (s *CombatService) State(ctx context.Context, id uuid.UUID, owner int64) (*View, error) {
	rec, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return nil, translate(err)
	}
	state, err := combat.Decode(rec.State)
	if err != nil {
		return nil, err
	}
	return &View{ID: rec.ID, State: state}, nil
}

// mutate loads combat id under its lock, applies step and persists the result. The
// turn that first reaches a terminal status also settles it in the same transaction.
func (s *CombatService) mutate(ctx context.Context, id uuid.UUID, owner int64, step func(*combat.State) (Notice, error)) (*View, error) {
	var view *View
	err := s.store.WithCombat(ctx, id, owner, func(ctx context.Context, tx storage.CombatTx) error {
		rec := tx.Combat()
		state, err := combat.Decode(rec.State)
		if err != nil {
			return err
		}
		if rec.Status != storage.StatusActive {
			view = &View{ID: rec.ID, State: state, Notice: NoticeAlreadyFinished}
			return nil
		}

		notice, err := step(state)
		if err != nil {
			return err
		}
		v := &View{ID: rec.ID, State: state, Notice: notice}
		if state.IsTerminal() {
			res, err := reward.Settle(ctx, tx, owner, state)
			if err != nil {
				return err
			}
			state.FinishMessage = res.Message()
			v.Settlement = res
			switch res.Kind {
			case reward.KindVictory:
				v.Notice = NoticeVictory
			case reward.KindDefeat:
				v.Notice = NoticeDefeat
			}
			s.logger.Info("combat finished",
				zap.Int64("player", owner),
				zap.String("combat", rec.ID.String()),
				zap.String("status", string(state.Status)),
				zap.Int("xp", res.XP),
				zap.Int("coins", res.Coins),
			)
		}

		blob, err := state.Encode(s.logLimit)
		if err != nil {
			return err
		}
		if err := tx.Save(ctx, string(state.Status), blob); err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return view, nil
}

func translateView(v *View, err error) (*View, error) {
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

// translate maps domain and storage errors onto the service's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reward.ErrSettlement):
		return fmt.Errorf("%w: %w", ErrSettlement, err)
	case errors.Is(err, storage.ErrBusy):
		return fmt.Errorf("%w: %w", ErrCombatBusy, err)
	case errors.Is(err, storage.ErrCombatNotFound):
		return fmt.Errorf("%w: %w", ErrCombatNotFound, err)
	case errors.Is(err, storage.ErrPlayerNotFound):
		return fmt.Errorf("%w: %w", ErrPlayerNotFound, err)
	case errors.Is(err, combat.ErrInvalidInput):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, combat.ErrWrongMode):
		return fmt.Errorf("%w: %w", ErrWrongMode, err)
	case errors.Is(err, character.ErrUnknownStat):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, character.ErrNoFreeStats):
		return fmt.Errorf("%w: %w", ErrNoFreeStats, err)
	}
	return err
}
