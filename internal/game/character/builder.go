package character

import "errors"

const (
	// StartingStat is the initial value of every physical attribute.
	StartingStat = 3
	// StartingExperienceToNext is the experience needed for the first level-up.
	StartingExperienceToNext = 1000
	// BaseInventorySlots is the inventory capacity every profile starts with.
	BaseInventorySlots = 500

	hpPerEndurance   = 12
	mpPerIntellect   = 40
	slotsPerLevel    = 20
	freeStatsPerLvl  = 3
	thresholdPercent = 120
)

// New constructs a fresh level-0 profile with starting attributes and full resources.
//
// Precondition: name must be non-empty.
// Postcondition: Returns a Profile ready for persistence, or a non-nil error.
func New(name string) (*Profile, error) {
	if name == "" {
		return nil, errors.New("profile name must not be empty")
	}
	p := &Profile{
		Name:             name,
		ExperienceToNext: StartingExperienceToNext,
		Stats: Stats{
			Strength:  StartingStat,
			Agility:   StartingStat,
			Intuition: StartingStat,
			Endurance: StartingStat,
		},
		BaseInventorySlots: BaseInventorySlots,
	}
	p.Recalculate()
	p.CurrentHP = p.MaxHP
	p.CurrentMP = p.MaxMP
	return p, nil
}

// Recalculate derives the resource maxima from the attributes and clamps the
// current values into range.
//
// Postcondition: MaxHP == Endurance*12; MaxMP == Intelligence*40;
// 0 <= CurrentHP <= MaxHP; 0 <= CurrentMP <= MaxMP.
func (p *Profile) Recalculate() {
	p.MaxHP = p.Stats.Endurance * hpPerEndurance
	p.MaxMP = p.Stats.Intelligence * mpPerIntellect
	p.CurrentHP = clamp(p.CurrentHP, 0, p.MaxHP)
	p.CurrentMP = clamp(p.CurrentMP, 0, p.MaxMP)
}

// SetCurrentHP sets the current hit points, clamped to [0, MaxHP].
func (p *Profile) SetCurrentHP(hp int) {
	p.CurrentHP = clamp(hp, 0, p.MaxHP)
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
