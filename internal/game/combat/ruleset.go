package combat

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Zone identifies a body zone that can be attacked or defended. Zones are 1-based.
type Zone int

// BlockMode selects what a successful block does to a strike.
type BlockMode int

const (
	// BlockNegate makes a blocked strike deal no damage.
	BlockNegate BlockMode = iota
	// BlockReduce cuts a blocked strike's damage by 75%.
	BlockReduce
)

// ArmorSlot names the armor field consulted when a zone is struck.
type ArmorSlot int

const (
	ArmorHead ArmorSlot = iota
	ArmorBody
	ArmorWaist
	ArmorLegs
)

// Armor holds per-slot armor values.
type Armor struct {
	Head  int `json:"head"`
	Body  int `json:"body"`
	Waist int `json:"waist"`
	Legs  int `json:"legs"`
}

// FlatArmor returns an Armor with v in every slot.
func FlatArmor(v int) Armor {
	return Armor{Head: v, Body: v, Waist: v, Legs: v}
}

// For returns the armor value for slot.
//
// Postcondition: Returns 0 for an unknown slot.
func (a Armor) For(slot ArmorSlot) int {
	switch slot {
	case ArmorHead:
		return a.Head
	case ArmorBody:
		return a.Body
	case ArmorWaist:
		return a.Waist
	case ArmorLegs:
		return a.Legs
	default:
		return 0
	}
}

// Defense is a defender's submitted defense selection. Rulesets with free zone
// choice read Zones; rulesets with predefined block sets read Block.
type Defense struct {
	Zones []Zone `json:"defense_zones,omitempty"`
	Block int    `json:"defense_block,omitempty"`
}

// Ruleset fixes the zone layout, the shape of a defense selection and the block semantic.
// A combat is resolved under exactly one Ruleset for its whole life.
type Ruleset struct {
	// Name is the identifier persisted in the combat state.
	Name string
	// Zones holds the display names, Zones[0] is zone 1.
	Zones []string
	// Slots maps each zone (same indexing as Zones) to the armor slot it strikes.
	Slots []ArmorSlot
	// Defended is the number of distinct zones a free-choice defense covers.
	// Zero means the ruleset uses BlockSets instead.
	Defended int
	// BlockSets maps a block choice to the zones it covers.
	BlockSets map[int][]Zone
	// Block is the block semantic.
	Block BlockMode
}

const (
	// RulesetFourZone is four zones, two freely chosen defended zones, negating block.
	RulesetFourZone = "four_zone"
	// RulesetFiveZone is five zones, one of five predefined block sets, damage-reducing block.
	RulesetFiveZone = "five_zone"
)

var fourZone = &Ruleset{
	Name:     RulesetFourZone,
	Zones:    []string{"head", "chest", "waist", "legs"},
	Slots:    []ArmorSlot{ArmorHead, ArmorBody, ArmorWaist, ArmorLegs},
	Defended: 2,
	Block:    BlockNegate,
}

var fiveZone = &Ruleset{
	Name:  RulesetFiveZone,
	Zones: []string{"head", "chest", "belly", "waist", "legs"},
	Slots: []ArmorSlot{ArmorHead, ArmorBody, ArmorBody, ArmorWaist, ArmorLegs},
	BlockSets: map[int][]Zone{
		1: {1, 2, 3},
		2: {2, 3, 4},
		3: {3, 4, 5},
		4: {4, 5, 1},
		5: {5, 1, 2},
	},
	Block: BlockReduce,
}

// LookupRuleset returns the ruleset registered under name.
//
// Postcondition: Returns a non-nil Ruleset or an error wrapping ErrInvalidInput.
func LookupRuleset(name string) (*Ruleset, error) {
	switch name {
	case RulesetFourZone:
		return fourZone, nil
	case RulesetFiveZone:
		return fiveZone, nil
	default:
		return nil, fmt.Errorf("%w: unknown ruleset %q", ErrInvalidInput, name)
	}
}

// ValidRuleset reports whether name identifies a known ruleset.
func ValidRuleset(name string) bool {
	_, err := LookupRuleset(name)
	return err == nil
}

// ValidZone reports whether z is a zone of this ruleset.
func (r *Ruleset) ValidZone(z Zone) bool {
	return z >= 1 && int(z) <= len(r.Zones)
}

// ZoneName returns the display name of z, or "body" for an unknown zone.
func (r *Ruleset) ZoneName(z Zone) string {
	if !r.ValidZone(z) {
		return "body"
	}
	return r.Zones[z-1]
}

// Slot returns the armor slot struck by an attack on z.
//
// Precondition: z must be a valid zone.
func (r *Ruleset) Slot(z Zone) ArmorSlot {
	return r.Slots[z-1]
}

// Guard converts a submitted Defense into the set of defended zones.
//
// Postcondition: Returns the defended zones, or an error wrapping ErrInvalidInput
// when d does not match the ruleset's defense shape.
func (r *Ruleset) Guard(d Defense) ([]Zone, error) {
	if r.Defended == 0 {
		zones, ok := r.BlockSets[d.Block]
		if !ok {
			return nil, fmt.Errorf("%w: defense block must be 1-%d, got %d", ErrInvalidInput, len(r.BlockSets), d.Block)
		}
		out := make([]Zone, len(zones))
		copy(out, zones)
		return out, nil
	}
	if len(d.Zones) != r.Defended {
		return nil, fmt.Errorf("%w: exactly %d defense zones required, got %d", ErrInvalidInput, r.Defended, len(d.Zones))
	}
	seen := make(map[Zone]bool, len(d.Zones))
	for _, z := range d.Zones {
		if !r.ValidZone(z) {
			return nil, fmt.Errorf("%w: defense zone %d out of range 1-%d", ErrInvalidInput, z, len(r.Zones))
		}
		if seen[z] {
			return nil, fmt.Errorf("%w: defense zone %d repeated", ErrInvalidInput, z)
		}
		seen[z] = true
	}
	out := make([]Zone, len(d.Zones))
	copy(out, d.Zones)
	return out, nil
}

// RandomZone picks an attack zone uniformly.
func (r *Ruleset) RandomZone(src dice.Source) Zone {
	return Zone(src.Intn(len(r.Zones)) + 1)
}

// RandomGuard picks a defense uniformly among the selections a player could submit.
//
// Postcondition: The result is always accepted by Guard's validation rules.
func (r *Ruleset) RandomGuard(src dice.Source) []Zone {
	if r.Defended == 0 {
		g, _ := r.Guard(Defense{Block: src.Intn(len(r.BlockSets)) + 1})
		return g
	}
	pool := make([]Zone, len(r.Zones))
	for i := range pool {
		pool[i] = Zone(i + 1)
	}
	out := make([]Zone, 0, r.Defended)
	for i := 0; i < r.Defended; i++ {
		j := src.Intn(len(pool))
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return out
}

func guarded(guard []Zone, z Zone) bool {
	for _, g := range guard {
		if g == z {
			return true
		}
	}
	return false
}
