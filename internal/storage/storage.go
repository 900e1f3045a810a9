// Package storage defines the records and errors shared by the persistence backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/reward"
)

var (
	// ErrCombatNotFound is returned when a combat does not exist or belongs to another owner.
	ErrCombatNotFound = errors.New("combat not found")
	// ErrPlayerNotFound is returned when a player lookup yields no results.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrActiveCombatExists is returned when creating a combat for an owner that already has an active one.
	ErrActiveCombatExists = errors.New("owner already has an active combat")
	// ErrBusy is returned when a combat's lock could not be acquired in time.
	ErrBusy = errors.New("combat is locked by another request")
)

// StatusActive is the record status of a combat still in progress.
const StatusActive = "active"

// ItemTypeWeapon is the inventory item type counted as an extra attack.
const ItemTypeWeapon = "weapon"

const (
	// CurrencyCoins is the ledger currency of combat rewards.
	CurrencyCoins = "coins"
	// KindReward is the ledger transaction kind of combat rewards.
	KindReward = "reward"
)

// Combat is a persisted combat record. State is opaque to the store.
type Combat struct {
	ID uuid.UUID
	// OwnerID is the owning player, zero when the owner has been deleted.
	OwnerID   int64
	Status    string
	State     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerEntry is one currency transaction of a player.
type LedgerEntry struct {
	ID           int64
	PlayerID     int64
	Currency     string
	Amount       int
	Kind         string
	BalanceAfter int
	Description  string
	CreatedAt    time.Time
}

// CombatTx is a combat row held under an exclusive lock for the lifetime of one
// transaction. Settlement effects applied through it commit or roll back together
// with the combat state.
type CombatTx interface {
	reward.Sink

	// Combat returns the locked record as read at the start of the transaction.
	Combat() *Combat
	// Save replaces the combat's status and state.
	Save(ctx context.Context, status string, state []byte) error
}

// CombatFunc runs inside a combat transaction. Returning an error rolls it back.
type CombatFunc func(ctx context.Context, tx CombatTx) error
