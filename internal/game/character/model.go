// Package character defines the persistent player profile, its progression rules
// and the combat snapshot taken from it.
package character

import "time"

// Stats holds the base attribute values distributed by the player.
type Stats struct {
	Strength     int
	Agility      int
	Intuition    int
	Endurance    int
	Intelligence int
}

// CombatStats holds the combat bonuses accumulated from gear and stat recalculation.
// Percentages are not clamped to 100.
type CombatStats struct {
	DamageMin   int
	DamageMax   int
	CritChance  int
	DodgeChance int
	Parry       int
	ArmorHead   int
	ArmorBody   int
	ArmorWaist  int
	ArmorLegs   int
}

// Profile is a player's persistent state.
//
// ID is set by the persistence layer; zero indicates an unsaved profile.
type Profile struct {
	ID   int64
	Name string

	Level            int
	Experience       int
	ExperienceToNext int
	FreeStats        int

	Stats  Stats
	Combat CombatStats

	CurrentHP int
	MaxHP     int
	CurrentMP int
	MaxMP     int

	Coins int

	BaseInventorySlots  int
	BonusInventorySlots int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InventorySlots returns the total inventory capacity.
func (p *Profile) InventorySlots() int {
	return p.BaseInventorySlots + p.BonusInventorySlots
}
