package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/monster"
)

// MonsterRepository stores the monster catalog.
type MonsterRepository struct {
	db *pgxpool.Pool
}

// NewMonsterRepository creates a MonsterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMonsterRepository(db *pgxpool.Pool) *MonsterRepository {
	return &MonsterRepository{db: db}
}

// List returns every monster template ordered by level then id.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *MonsterRepository) List(ctx context.Context) ([]*monster.Template, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, level, hp, strength, agility, intuition, endurance, speed,
		       damage_min, damage_max, crit_chance, dodge_chance, parry_chance, armor,
		       xp_reward, coin_reward
		FROM monsters ORDER BY level ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing monsters: %w", err)
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
			return nil, fmt.Errorf("scanning monster row: %w", err)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// Upsert inserts a monster template or replaces the one with the same id.
//
// Precondition: t must be valid.
func (r *MonsterRepository) Upsert(ctx context.Context, t *monster.Template) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO monsters
			(id, name, level, hp, strength, agility, intuition, endurance, speed,
			 damage_min, damage_max, crit_chance, dodge_chance, parry_chance, armor,
			 xp_reward, coin_reward)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, level = EXCLUDED.level, hp = EXCLUDED.hp,
			strength = EXCLUDED.strength, agility = EXCLUDED.agility,
			intuition = EXCLUDED.intuition, endurance = EXCLUDED.endurance, speed = EXCLUDED.speed,
			damage_min = EXCLUDED.damage_min, damage_max = EXCLUDED.damage_max,
			crit_chance = EXCLUDED.crit_chance, dodge_chance = EXCLUDED.dodge_chance,
			parry_chance = EXCLUDED.parry_chance, armor = EXCLUDED.armor,
			xp_reward = EXCLUDED.xp_reward, coin_reward = EXCLUDED.coin_reward`,
		t.ID, t.Name, t.Level, t.HP, t.Strength, t.Agility, t.Intuition, t.Endurance, t.Speed,
		t.DamageMin, t.DamageMax, t.CritChance, t.DodgeChance, t.ParryChance, t.Armor,
		t.XPReward, t.CoinReward,
	)
	if err != nil {
		return fmt.Errorf("upserting monster %q: %w", t.ID, err)
	}
	return nil
}
