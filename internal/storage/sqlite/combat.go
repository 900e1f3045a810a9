package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/storage"
)

const combatColumns = `id, owner_id, status, state, created_at, updated_at`

func scanCombat(row *sql.Row) (*storage.Combat, error) {
	var (
		c                storage.Combat
		id               string
		owner            sql.NullInt64
		state            string
		created, updated int64
	)
	if err := row.Scan(&id, &owner, &c.Status, &state, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCombatNotFound
		}
		return nil, fmt.Errorf("scan combat: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse combat id %q: %w", id, err)
	}
	c.ID = parsed
	if owner.Valid {
		c.OwnerID = owner.Int64
	}
	c.State = []byte(state)
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}

// Snapshot returns the combat snapshot of a player.
func (s *Store) Snapshot(ctx context.Context, playerID int64) (character.Snapshot, error) {
	return s.Players().Snapshot(ctx, playerID)
}

// Create inserts a new combat for owner.
//
// Postcondition: Returns the stored record, or storage.ErrActiveCombatExists when
// status is active and owner already has an active combat.
func (s *Store) Create(ctx context.Context, owner int64, status string, state []byte) (*storage.Combat, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate combat id: %w", err)
	}
	now := toMillis(time.Now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO combats (id, owner_id, status, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), owner, status, string(state), now, now,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, storage.ErrActiveCombatExists
		case isBusy(err):
			return nil, storage.ErrBusy
		}
		return nil, fmt.Errorf("insert combat: %w", err)
	}
	return s.Get(ctx, id, owner)
}

// Get returns the combat with id owned by owner.
//
// Postcondition: Returns the record, or storage.ErrCombatNotFound when it does not
// exist or belongs to another owner.
func (s *Store) Get(ctx context.Context, id uuid.UUID, owner int64) (*storage.Combat, error) {
	return scanCombat(s.db.QueryRowContext(ctx,
		`SELECT `+combatColumns+` FROM combats WHERE id = ? AND owner_id = ?`,
		id.String(), owner,
	))
}

// Active returns owner's active combat.
func (s *Store) Active(ctx context.Context, owner int64) (*storage.Combat, error) {
	return scanCombat(s.db.QueryRowContext(ctx,
		`SELECT `+combatColumns+` FROM combats WHERE owner_id = ? AND status = ?`,
		owner, storage.StatusActive,
	))
}

// WithCombat runs fn against the combat with id owned by owner inside one
// write transaction. SQLite holds a database-wide write lock, so turns on
// different combats are serialized too.
//
// Postcondition: Returns storage.ErrCombatNotFound for a missing or foreign combat,
// storage.ErrBusy when the write lock was not granted within the busy timeout, or fn's error.
func (s *Store) WithCombat(ctx context.Context, id uuid.UUID, owner int64, fn storage.CombatFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return storage.ErrBusy
		}
		return fmt.Errorf("begin combat transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanCombat(tx.QueryRowContext(ctx,
		`SELECT `+combatColumns+` FROM combats WHERE id = ? AND owner_id = ?`,
		id.String(), owner,
	))
	if err != nil {
		if isBusy(err) {
			return storage.ErrBusy
		}
		return err
	}

	if err := fn(ctx, &combatTx{tx: tx, rec: rec}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return storage.ErrBusy
		}
		return fmt.Errorf("commit combat transaction: %w", err)
	}
	return nil
}

// combatTx implements storage.CombatTx on a SQLite transaction.
type combatTx struct {
	tx  *sql.Tx
	rec *storage.Combat
}

func (c *combatTx) Combat() *storage.Combat { return c.rec }

func (c *combatTx) Save(ctx context.Context, status string, state []byte) error {
	res, err := c.tx.ExecContext(ctx,
		`UPDATE combats SET status = ?, state = ?, updated_at = ? WHERE id = ?`,
		status, string(state), toMillis(time.Now()), c.rec.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("save combat: %w", err)
	}
	if err := requireRow(res, storage.ErrCombatNotFound); err != nil {
		return err
	}
	c.rec.Status = status
	c.rec.State = state
	return nil
}

func (c *combatTx) ApplyReward(ctx context.Context, playerID int64, xp, coins int, reason string) error {
	p, err := getProfile(ctx, c.tx, playerID)
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
	res, err := c.tx.ExecContext(ctx, `
		UPDATE players SET current_hp = MIN(MAX(?, 0), max_hp), updated_at = ?
		WHERE id = ?`,
		hp, toMillis(time.Now()), playerID,
	)
	if err != nil {
		return fmt.Errorf("store current hp: %w", err)
	}
	return requireRow(res, storage.ErrPlayerNotFound)
}
