package character

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFreeStats is returned when distributing a stat without free points.
	ErrNoFreeStats = errors.New("no free stat points")
	// ErrUnknownStat is returned for a stat name outside the Stat enum.
	ErrUnknownStat = errors.New("unknown stat")
)

// Stat identifies a distributable attribute.
type Stat string

const (
	StatStrength     Stat = "strength"
	StatAgility      Stat = "agility"
	StatIntuition    Stat = "intuition"
	StatEndurance    Stat = "endurance"
	StatIntelligence Stat = "intelligence"
)

// field returns a pointer to the attribute backing stat, or nil for an unknown stat.
func (s *Stats) field(stat Stat) *int {
	switch stat {
	case StatStrength:
		return &s.Strength
	case StatAgility:
		return &s.Agility
	case StatIntuition:
		return &s.Intuition
	case StatEndurance:
		return &s.Endurance
	case StatIntelligence:
		return &s.Intelligence
	default:
		return nil
	}
}

// Get returns the value of stat.
//
// Postcondition: Returns 0 and false for an unknown stat.
func (s Stats) Get(stat Stat) (int, bool) {
	f := s.field(stat)
	if f == nil {
		return 0, false
	}
	return *f, true
}

// GainExperience adds amount experience and applies every level-up it unlocks.
//
// Precondition: amount >= 0.
// Postcondition: Experience < ExperienceToNext. Returns the number of levels gained.
func (p *Profile) GainExperience(amount int) int {
	p.Experience += amount
	levels := 0
	for p.ExperienceToNext > 0 && p.Experience >= p.ExperienceToNext {
		p.levelUp()
		levels++
	}
	return levels
}

// levelUp consumes one level's worth of experience. Each level grants one endurance,
// three free stat points and a 20% higher threshold, restores hit and mana points
// to the new maxima and recomputes inventory capacity.
func (p *Profile) levelUp() {
	p.Experience -= p.ExperienceToNext
	p.Level++
	p.Stats.Endurance++
	p.FreeStats += freeStatsPerLvl
	p.ExperienceToNext = p.ExperienceToNext * thresholdPercent / 100
	p.Recalculate()
	p.CurrentHP = p.MaxHP
	p.CurrentMP = p.MaxMP
	p.BonusInventorySlots = max(0, (p.Level-1)*slotsPerLevel)
}

// DistributeStat spends one free stat point on stat.
//
// Postcondition: On success stat is one higher, FreeStats one lower and maxima
// recomputed; otherwise the profile is unchanged and an error is returned.
func (p *Profile) DistributeStat(stat Stat) error {
	if p.FreeStats <= 0 {
		return ErrNoFreeStats
	}
	f := p.Stats.field(stat)
	if f == nil {
		return fmt.Errorf("%w %q", ErrUnknownStat, stat)
	}
	*f++
	p.FreeStats--
	p.Recalculate()
	return nil
}

// Reward grants a combat reward of xp experience and coins.
//
// Precondition: xp >= 0 and coins >= 0.
// Postcondition: Coins increased by coins; experience applied via GainExperience.
// Returns the number of levels gained.
func (p *Profile) Reward(xp, coins int) int {
	p.Coins += coins
	return p.GainExperience(xp)
}
