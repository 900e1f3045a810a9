package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/character"
)

// PlayerStore applies profile changes a player makes between combats.
type PlayerStore interface {
	DistributeStat(ctx context.Context, playerID int64, stat character.Stat) (*character.Profile, error)
}

// PlayerService manages the caller's own profile.
type PlayerService struct {
	store  PlayerStore
	logger *zap.Logger
}

// NewPlayerService creates a PlayerService.
//
// Precondition: store and logger must be non-nil.
func NewPlayerService(store PlayerStore, logger *zap.Logger) *PlayerService {
	return &PlayerService{store: store, logger: logger}
}

// DistributeStat spends one free stat point of owner on stat.
//
// Postcondition: Returns the updated profile, or one of ErrInvalidInput,
// ErrNoFreeStats, ErrPlayerNotFound, ErrCombatBusy.
func (s *PlayerService) DistributeStat(ctx context.Context, owner int64, stat character.Stat) (*character.Profile, error) {
	p, err := s.store.DistributeStat(ctx, owner, stat)
	if err != nil {
		return nil, translate(err)
	}
	s.logger.Info("stat distributed",
		zap.Int64("player", owner),
		zap.String("stat", string(stat)),
		zap.Int("free_stats", p.FreeStats),
	)
	return p, nil
}
