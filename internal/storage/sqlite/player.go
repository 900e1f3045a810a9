package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func scanProfile(row *sql.Row) (*character.Profile, error) {
	var (
		p                character.Profile
		created, updated int64
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Level, &p.Experience, &p.ExperienceToNext, &p.FreeStats,
		&p.Stats.Strength, &p.Stats.Agility, &p.Stats.Intuition, &p.Stats.Endurance, &p.Stats.Intelligence,
		&p.Combat.DamageMin, &p.Combat.DamageMax, &p.Combat.CritChance, &p.Combat.DodgeChance, &p.Combat.Parry,
		&p.Combat.ArmorHead, &p.Combat.ArmorBody, &p.Combat.ArmorWaist, &p.Combat.ArmorLegs,
		&p.CurrentHP, &p.MaxHP, &p.CurrentMP, &p.MaxMP, &p.Coins,
		&p.BaseInventorySlots, &p.BonusInventorySlots, &created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func getProfile(ctx context.Context, q querier, id int64) (*character.Profile, error) {
	return scanProfile(q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM players WHERE id = ?`, id))
}

// saveProgress writes every field a settlement can change.
func saveProgress(ctx context.Context, q querier, p *character.Profile) error {
	res, err := q.ExecContext(ctx, `
		UPDATE players SET
			level = ?, experience = ?, experience_to_next = ?, free_stats = ?,
			endurance = ?, current_hp = ?, max_hp = ?, current_mp = ?, max_mp = ?,
			coins = ?, bonus_inventory_slots = ?, updated_at = ?
		WHERE id = ?`,
		p.Level, p.Experience, p.ExperienceToNext, p.FreeStats,
		p.Stats.Endurance, p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP,
		p.Coins, p.BonusInventorySlots, toMillis(time.Now()), p.ID,
	)
	if err != nil {
		return fmt.Errorf("save player progress: %w", err)
	}
	return requireRow(res, storage.ErrPlayerNotFound)
}

// saveStats writes the attributes and the maxima derived from them.
func saveStats(ctx context.Context, q querier, p *character.Profile) error {
	res, err := q.ExecContext(ctx, `
		UPDATE players SET
			free_stats = ?, strength = ?, agility = ?, intuition = ?, endurance = ?, intelligence = ?,
			current_hp = ?, max_hp = ?, current_mp = ?, max_mp = ?, updated_at = ?
		WHERE id = ?`,
		p.FreeStats, p.Stats.Strength, p.Stats.Agility, p.Stats.Intuition, p.Stats.Endurance, p.Stats.Intelligence,
		p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP, toMillis(time.Now()), p.ID,
	)
	if err != nil {
		return fmt.Errorf("save player stats: %w", err)
	}
	return requireRow(res, storage.ErrPlayerNotFound)
}

func insertLedger(ctx context.Context, q querier, e storage.LedgerEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO currency_transactions (player_id, currency, amount, kind, balance_after, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.PlayerID, e.Currency, e.Amount, e.Kind, e.BalanceAfter, e.Description, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

// PlayerRepository persists player profiles, their inventory and currency ledger.
type PlayerRepository struct {
	db *sql.DB
}

// Players returns the store's player repository.
func (s *Store) Players() *PlayerRepository {
	return &PlayerRepository{db: s.db}
}

// Create inserts a new player profile and returns it with ID and timestamps set.
//
// Precondition: p.Name must be non-empty.
// Postcondition: Returns the stored profile, or ErrPlayerNameTaken on duplicate.
func (r *PlayerRepository) Create(ctx context.Context, p *character.Profile) (*character.Profile, error) {
	now := toMillis(time.Now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO players
			(name, level, experience, experience_to_next, free_stats,
			 strength, agility, intuition, endurance, intelligence,
			 damage_min, damage_max, crit_chance, dodge_chance, parry,
			 armor_head, armor_body, armor_waist, armor_legs,
			 current_hp, max_hp, current_mp, max_mp, coins,
			 base_inventory_slots, bonus_inventory_slots, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Level, p.Experience, p.ExperienceToNext, p.FreeStats,
		p.Stats.Strength, p.Stats.Agility, p.Stats.Intuition, p.Stats.Endurance, p.Stats.Intelligence,
		p.Combat.DamageMin, p.Combat.DamageMax, p.Combat.CritChance, p.Combat.DodgeChance, p.Combat.Parry,
		p.Combat.ArmorHead, p.Combat.ArmorBody, p.Combat.ArmorWaist, p.Combat.ArmorLegs,
		p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP, p.Coins,
		p.BaseInventorySlots, p.BonusInventorySlots, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPlayerNameTaken
		}
		return nil, fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("player id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a player profile by its primary key.
//
// Postcondition: Returns the Profile or storage.ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*character.Profile, error) {
	return getProfile(ctx, r.db, id)
}

// AddItem adds an inventory item to a player.
func (r *PlayerRepository) AddItem(ctx context.Context, playerID int64, name, itemType string, equipped bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_items (player_id, name, item_type, equipped, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		playerID, name, itemType, equipped, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

// Snapshot returns the combat snapshot of a player, including the number of
// equipped weapons.
//
// Postcondition: Returns the snapshot or storage.ErrPlayerNotFound.
func (r *PlayerRepository) Snapshot(ctx context.Context, playerID int64) (character.Snapshot, error) {
	p, err := r.GetByID(ctx, playerID)
	if err != nil {
		return character.Snapshot{}, err
	}
	var weapons int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inventory_items
		WHERE player_id = ? AND equipped = 1 AND item_type = ?`,
		playerID, storage.ItemTypeWeapon,
	).Scan(&weapons)
	if err != nil {
		return character.Snapshot{}, fmt.Errorf("count equipped weapons: %w", err)
	}
	return p.Snapshot(weapons), nil
}

// DistributeStat spends one of the player's free stat points on stat.
//
// Postcondition: Returns the updated profile, character.ErrNoFreeStats,
// character.ErrUnknownStat, storage.ErrPlayerNotFound or storage.ErrBusy. On error
// nothing is written.
func (r *PlayerRepository) DistributeStat(ctx context.Context, playerID int64, stat character.Stat) (*character.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return nil, storage.ErrBusy
		}
		return nil, fmt.Errorf("begin stat transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := getProfile(ctx, tx, playerID)
	if err != nil {
		if isBusy(err) {
			return nil, storage.ErrBusy
		}
		return nil, err
	}
	if err := p.DistributeStat(stat); err != nil {
		return nil, err
	}
	if err := saveStats(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return nil, storage.ErrBusy
		}
		return nil, fmt.Errorf("commit stat transaction: %w", err)
	}
	return p, nil
}

// Ledger returns a player's currency transactions, oldest first.
func (r *PlayerRepository) Ledger(ctx context.Context, playerID int64) ([]storage.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, player_id, currency, amount, kind, balance_after, description, created_at
		FROM currency_transactions WHERE player_id = ? ORDER BY id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.LedgerEntry, 0)
	for rows.Next() {
		var (
			e       storage.LedgerEntry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Currency, &e.Amount, &e.Kind,
			&e.BalanceAfter, &e.Description, &created); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		e.CreatedAt = fromMillis(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
