// Package combat implements the turn-based PvE combat engine: the damage resolver,
// the duel and initiative-roster turn orchestrators, and the roster builder.
package combat

import "errors"

// ErrInvalidInput is wrapped by every error caused by a malformed zone or defense selection.
var ErrInvalidInput = errors.New("invalid combat input")

// ErrWrongMode is returned when an operation does not apply to the combat's mode.
var ErrWrongMode = errors.New("operation not supported in this combat mode")

// ErrNotPlayersTurn is returned when a player action is attempted while a monster is due to act.
var ErrNotPlayersTurn = errors.New("not the player's turn")

// Combatant is one participant of a combat, either the player or a monster.
// Combatants are snapshots owned by a single combat state and are never shared.
type Combatant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	IsPlayer  bool   `json:"is_player"`
	CurrentHP int    `json:"current_hp"`
	MaxHP     int    `json:"max_hp"`

	DamageMin   int   `json:"damage_min"`
	DamageMax   int   `json:"damage_max"`
	CritChance  int   `json:"crit_chance"`
	DodgeChance int   `json:"dodge_chance"`
	ParryChance int   `json:"parry_chance"`
	Armor       Armor `json:"armor"`

	Strength  int `json:"strength"`
	Agility   int `json:"agility"`
	Intuition int `json:"intuition"`
	Speed     int `json:"speed"`

	// Attacks is the number of strikes per duel turn, at least 1.
	Attacks    int `json:"num_attacks"`
	Initiative int `json:"initiative,omitempty"`
	// Guard is the defense last submitted by a player in roster mode.
	Guard []Zone `json:"guard,omitempty"`

	XPReward   int `json:"xp_reward,omitempty"`
	CoinReward int `json:"coin_reward,omitempty"`
}

// IsDead reports whether the combatant has no hit points left.
func (c *Combatant) IsDead() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= CurrentHP <= MaxHP.
func (c *Combatant) ApplyDamage(amount int) {
	if amount < 0 {
		amount = 0
	}
	c.CurrentHP -= amount
	c.clamp()
}

func (c *Combatant) clamp() {
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}
