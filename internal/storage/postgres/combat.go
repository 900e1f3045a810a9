package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/storage"
)

const combatColumns = `id, owner_id, status, state, created_at, updated_at`

func scanCombat(row pgx.Row) (*storage.Combat, error) {
	var (
		c     storage.Combat
		owner *int64
	)
	if err := row.Scan(&c.ID, &owner, &c.Status, &c.State, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrCombatNotFound
		}
		return nil, fmt.Errorf("scanning combat: %w", err)
	}
	if owner != nil {
		c.OwnerID = *owner
	}
	return &c, nil
}

// CombatStore persists combats and serializes turns on a combat with a row lock.
// Player reads are delegated to a PlayerRepository on the same pool.
type CombatStore struct {
	db          *pgxpool.Pool
	players     *PlayerRepository
	lockTimeout time.Duration
}

// NewCombatStore creates a CombatStore backed by the given pool. A positive
// lockTimeout bounds how long a turn waits for a combat's lock.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatStore(db *pgxpool.Pool, lockTimeout time.Duration) *CombatStore {
	return &CombatStore{db: db, players: NewPlayerRepository(db), lockTimeout: lockTimeout}
}

// Snapshot returns the combat snapshot of a player.
func (s *CombatStore) Snapshot(ctx context.Context, playerID int64) (character.Snapshot, error) {
	return s.players.Snapshot(ctx, playerID)
}

// Create inserts a new combat for owner.
//
// Precondition: state must be valid JSON.
// Postcondition: Returns the stored record, or storage.ErrActiveCombatExists when
// status is active and owner already has an active combat.
func (s *CombatStore) Create(ctx context.Context, owner int64, status string, state []byte) (*storage.Combat, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generating combat id: %w", err)
	}
	c, err := scanCombat(s.db.QueryRow(ctx, `
		INSERT INTO combats (id, owner_id, status, state)
		VALUES ($1, $2, $3, $4)
		RETURNING `+combatColumns,
		id, owner, status, state,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrActiveCombatExists
		}
		return nil, fmt.Errorf("inserting combat: %w", err)
	}
	return c, nil
}

// Get returns the combat with id owned by owner.
//
// Postcondition: Returns the record, or storage.ErrCombatNotFound when it does not
// exist or belongs to another owner.
func (s *CombatStore) Get(ctx context.Context, id uuid.UUID, owner int64) (*storage.Combat, error) {
	return scanCombat(s.db.QueryRow(ctx,
		`SELECT `+combatColumns+` FROM combats WHERE id = $1 AND owner_id = $2`,
		id, owner,
	))
}

// Active returns owner's active combat.
//
// Postcondition: Returns the record or storage.ErrCombatNotFound.
func (s *CombatStore) Active(ctx context.Context, owner int64) (*storage.Combat, error) {
	return scanCombat(s.db.QueryRow(ctx,
		`SELECT `+combatColumns+` FROM combats WHERE owner_id = $1 AND status = $2`,
		owner, storage.StatusActive,
	))
}

// WithCombat locks the combat with id owned by owner and runs fn in the locking
// transaction. The transaction commits iff fn returns nil.
//
// Postcondition: Returns storage.ErrCombatNotFound for a missing or foreign combat,
// storage.ErrBusy when the lock was not granted within the lock timeout, or fn's error.
func (s *CombatStore) WithCombat(ctx context.Context, id uuid.UUID, owner int64, fn storage.CombatFunc) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning combat transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if s.lockTimeout > 0 {
		// SET does not accept bind parameters.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("setting lock timeout: %w", err)
		}
	}

	rec, err := scanCombat(tx.QueryRow(ctx,
		`SELECT `+combatColumns+` FROM combats WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		id, owner,
	))
	if err != nil {
		if isLockTimeout(err) {
			return storage.ErrBusy
		}
		return err
	}

	if err := fn(ctx, &combatTx{tx: tx, rec: rec}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing combat transaction: %w", err)
	}
	return nil
}

// combatTx implements storage.CombatTx on a pgx transaction.
type combatTx struct {
	tx  pgx.Tx
	rec *storage.Combat
}

func (c *combatTx) Combat() *storage.Combat { return c.rec }

func (c *combatTx) Save(ctx context.Context, status string, state []byte) error {
	_, err := c.tx.Exec(ctx,
		`UPDATE combats SET status = $2, state = $3, updated_at = NOW() WHERE id = $1`,
		c.rec.ID, status, state,
	)
	if err != nil {
		return fmt.Errorf("saving combat: %w", err)
	}
	c.rec.Status = status
	c.rec.State = state
	return nil
}

func (c *combatTx) ApplyReward(ctx context.Context, playerID int64, xp, coins int, reason string) error {
	p, err := getProfile(ctx, c.tx, playerID, true)
	if err != nil {
		return err
	}
	p.Reward(xp, coins)
	if err := saveProgress(ctx, c.tx, p); err != nil {
		return err
	}
	return insertLedger(ctx, c.tx, storage.LedgerEntry{
		PlayerID:     playerID,
		Currency:     storage.CurrencyCoins,
		Amount:       coins,
		Kind:         storage.KindReward,
		BalanceAfter: p.Coins,
		Description:  reason,
	})
}

func (c *combatTx) SetCurrentHP(ctx context.Context, playerID int64, hp int) error {
	tag, err := c.tx.Exec(ctx, `
		UPDATE players SET current_hp = LEAST(GREATEST($2::int, 0), max_hp), updated_at = NOW()
		WHERE id = $1`,
		playerID, hp,
	)
	if err != nil {
		return fmt.Errorf("storing current hp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPlayerNotFound
	}
	return nil
}
