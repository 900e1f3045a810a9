package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/monster"
)

const monsterColumns = `id, name, level, hp, strength, agility, intuition, endurance, speed,
	damage_min, damage_max, crit_chance, dodge_chance, parry_chance, armor,
	xp_reward, coin_reward`

// MonsterRepository stores the monster catalog.
type MonsterRepository struct {
	db *sql.DB
}

// Monsters returns the store's monster repository.
func (s *Store) Monsters() *MonsterRepository {
	return &MonsterRepository{db: s.db}
}

// List returns every monster template ordered by level then id.
func (r *MonsterRepository) List(ctx context.Context) ([]*monster.Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+monsterColumns+` FROM monsters ORDER BY level ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list monsters: %w", err)
	}
	defer rows.Close()

	templates := make([]*monster.Template, 0)
	for rows.Next() {
		var t monster.Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Level, &t.HP, &t.Strength, &t.Agility, &t.Intuition, &t.Endurance, &t.Speed,
			&t.DamageMin, &t.DamageMax, &t.CritChance, &t.DodgeChance, &t.ParryChance, &t.Armor,
			&t.XPReward, &t.CoinReward,
		); err != nil {
			return nil, fmt.Errorf("scan monster row: %w", err)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// Upsert inserts a monster template or replaces the one with the same id.
//
// Precondition: t must be valid.
func (r *MonsterRepository) Upsert(ctx context.Context, t *monster.Template) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monsters (`+monsterColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, level = excluded.level, hp = excluded.hp,
			strength = excluded.strength, agility = excluded.agility,
			intuition = excluded.intuition, endurance = excluded.endurance, speed = excluded.speed,
			damage_min = excluded.damage_min, damage_max = excluded.damage_max,
			crit_chance = excluded.crit_chance, dodge_chance = excluded.dodge_chance,
			parry_chance = excluded.parry_chance, armor = excluded.armor,
			xp_reward = excluded.xp_reward, coin_reward = excluded.coin_reward`,
		t.ID, t.Name, t.Level, t.HP, t.Strength, t.Agility, t.Intuition, t.Endurance, t.Speed,
		t.DamageMin, t.DamageMax, t.CritChance, t.DodgeChance, t.ParryChance, t.Armor,
		t.XPReward, t.CoinReward,
	)
	if err != nil {
		return fmt.Errorf("upsert monster %q: %w", t.ID, err)
	}
	return nil
}
