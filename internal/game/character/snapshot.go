package character

// Snapshot is the side-effect-free view of a player that a combat is built from.
type Snapshot struct {
	PlayerID  int64
	Name      string
	Level     int
	CurrentHP int
	MaxHP     int
	Combat    CombatStats
	Strength  int
	Agility   int
	Intuition int
	// EquippedWeapons is the number of equipped weapon-type items.
	EquippedWeapons int
}

// Snapshot captures the profile's combat-relevant fields.
func (p *Profile) Snapshot(equippedWeapons int) Snapshot {
	return Snapshot{
		PlayerID:        p.ID,
		Name:            p.Name,
		Level:           p.Level,
		CurrentHP:       p.CurrentHP,
		MaxHP:           p.MaxHP,
		Combat:          p.Combat,
		Strength:        p.Stats.Strength,
		Agility:         p.Stats.Agility,
		Intuition:       p.Stats.Intuition,
		EquippedWeapons: equippedWeapons,
	}
}
