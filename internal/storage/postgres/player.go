package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/storage"
)

// ErrPlayerNameTaken is returned when creating a player with a name already in use.
var ErrPlayerNameTaken = errors.New("player name already taken")

const profileColumns = `id, name, level, experience, experience_to_next, free_stats,
	strength, agility, intuition, endurance, intelligence,
	damage_min, damage_max, crit_chance, dodge_chance, parry,
	armor_head, armor_body, armor_waist, armor_legs,
	current_hp, max_hp, current_mp, max_mp, coins,
	base_inventory_slots, bonus_inventory_slots, created_at, updated_at`

func scanProfile(row pgx.Row) (*character.Profile, error) {
	var p character.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.Level, &p.Experience, &p.ExperienceToNext, &p.FreeStats,
		&p.Stats.Strength, &p.Stats.Agility, &p.Stats.Intuition, &p.Stats.Endurance, &p.Stats.Intelligence,
		&p.Combat.DamageMin, &p.Combat.DamageMax, &p.Combat.CritChance, &p.Combat.DodgeChance, &p.Combat.Parry,
		&p.Combat.ArmorHead, &p.Combat.ArmorBody, &p.Combat.ArmorWaist, &p.Combat.ArmorLegs,
		&p.CurrentHP, &p.MaxHP, &p.CurrentMP, &p.MaxMP, &p.Coins,
		&p.BaseInventorySlots, &p.BonusInventorySlots, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("scanning player: %w", err)
	}
	return &p, nil
}

func getProfile(ctx context.Context, q querier, id int64, forUpdate bool) (*character.Profile, error) {
	sql := `SELECT ` + profileColumns + ` FROM players WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	return scanProfile(q.QueryRow(ctx, sql, id))
}

// saveProgress writes every field a settlement can change.
func saveProgress(ctx context.Context, q querier, p *character.Profile) error {
	tag, err := q.Exec(ctx, `
		UPDATE players SET
			level = $2, experience = $3, experience_to_next = $4, free_stats = $5,
			endurance = $6, current_hp = $7, max_hp = $8, current_mp = $9, max_mp = $10,
			coins = $11, bonus_inventory_slots = $12, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Level, p.Experience, p.ExperienceToNext, p.FreeStats,
		p.Stats.Endurance, p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP,
		p.Coins, p.BonusInventorySlots,
	)
	if err != nil {
		return fmt.Errorf("saving player progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPlayerNotFound
	}
	return nil
}

// saveStats writes the attributes and the maxima derived from them.
func saveStats(ctx context.Context, q querier, p *character.Profile) error {
	tag, err := q.Exec(ctx, `
		UPDATE players SET
			free_stats = $2, strength = $3, agility = $4, intuition = $5, endurance = $6, intelligence = $7,
			current_hp = $8, max_hp = $9, current_mp = $10, max_mp = $11, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FreeStats, p.Stats.Strength, p.Stats.Agility, p.Stats.Intuition, p.Stats.Endurance, p.Stats.Intelligence,
		p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP,
	)
	if err != nil {
		return fmt.Errorf("saving player stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPlayerNotFound
	}
	return nil
}

func insertLedger(ctx context.Context, q querier, e storage.LedgerEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO currency_transactions (player_id, currency, amount, kind, balance_after, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.PlayerID, e.Currency, e.Amount, e.Kind, e.BalanceAfter, e.Description,
	)
	if err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}
	return nil
}

// PlayerRepository provides player profile persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player profile and returns it with ID and timestamps set.
//
// Precondition: p.Name must be non-empty.
// Postcondition: Returns the stored profile, or ErrPlayerNameTaken on duplicate.
func (r *PlayerRepository) Create(ctx context.Context, p *character.Profile) (*character.Profile, error) {
	out, err := scanProfile(r.db.QueryRow(ctx, `
		INSERT INTO players
			(name, level, experience, experience_to_next, free_stats,
			 strength, agility, intuition, endurance, intelligence,
			 damage_min, damage_max, crit_chance, dodge_chance, parry,
			 armor_head, armor_body, armor_waist, armor_legs,
			 current_hp, max_hp, current_mp, max_mp, coins,
			 base_inventory_slots, bonus_inventory_slots)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
		RETURNING `+profileColumns,
		p.Name, p.Level, p.Experience, p.ExperienceToNext, p.FreeStats,
		p.Stats.Strength, p.Stats.Agility, p.Stats.Intuition, p.Stats.Endurance, p.Stats.Intelligence,
		p.Combat.DamageMin, p.Combat.DamageMax, p.Combat.CritChance, p.Combat.DodgeChance, p.Combat.Parry,
		p.Combat.ArmorHead, p.Combat.ArmorBody, p.Combat.ArmorWaist, p.Combat.ArmorLegs,
		p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP, p.Coins,
		p.BaseInventorySlots, p.BonusInventorySlots,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPlayerNameTaken
		}
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return out, nil
}

// GetByID retrieves a player profile by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the Profile or storage.ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*character.Profile, error) {
	return getProfile(ctx, r.db, id, false)
}

// AddItem adds an inventory item to a player.
//
// Precondition: playerID must reference an existing player; name and itemType must be non-empty.
func (r *PlayerRepository) AddItem(ctx context.Context, playerID int64, name, itemType string, equipped bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventory_items (player_id, name, item_type, equipped)
		VALUES ($1, $2, $3, $4)`,
		playerID, name, itemType, equipped,
	)
	if err != nil {
		return fmt.Errorf("inserting inventory item: %w", err)
	}
	return nil
}

// Snapshot returns the combat snapshot of a player, including the number of
// equipped weapons.
//
// Postcondition: Returns the snapshot or storage.ErrPlayerNotFound.
func (r *PlayerRepository) Snapshot(ctx context.Context, id int64) (character.Snapshot, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return character.Snapshot{}, err
	}
	var weapons int
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM inventory_items
		WHERE player_id = $1 AND equipped AND item_type = $2`,
		id, storage.ItemTypeWeapon,
	).Scan(&weapons)
	if err != nil {
		return character.Snapshot{}, fmt.Errorf("counting equipped weapons: %w", err)
	}
	return p.Snapshot(weapons), nil
}

// DistributeStat spends one of the player's free stat points on stat. The player
// row is locked for the duration of the update.
//
// Postcondition: Returns the updated profile, character.ErrNoFreeStats,
// character.ErrUnknownStat or storage.ErrPlayerNotFound. On error nothing is written.
func (r *PlayerRepository) DistributeStat(ctx context.Context, playerID int64, stat character.Stat) (*character.Profile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning stat transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := getProfile(ctx, tx, playerID, true)
	if err != nil {
		return nil, err
	}
	if err := p.DistributeStat(stat); err != nil {
		return nil, err
	}
	if err := saveStats(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing stat transaction: %w", err)
	}
	return p, nil
}

// Ledger returns a player's currency transactions, oldest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *PlayerRepository) Ledger(ctx context.Context, playerID int64) ([]storage.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, currency, amount, kind, balance_after, description, created_at
		FROM currency_transactions WHERE player_id = $1 ORDER BY id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.LedgerEntry, 0)
	for rows.Next() {
		var e storage.LedgerEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Currency, &e.Amount, &e.Kind,
			&e.BalanceAfter, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
