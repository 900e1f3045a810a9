package combat

import "github.com/cory-johannsen/arena/internal/game/dice"

// Outcome tags the result of a single strike.
type Outcome string

const (
	OutcomeMiss  Outcome = "miss"
	OutcomeDodge Outcome = "dodge"
	OutcomeParry Outcome = "parry"
	OutcomeBlock Outcome = "block"
	OutcomeCrit  Outcome = "crit"
	OutcomeHit   Outcome = "hit"
)

// MissChance is the flat percentage chance that any strike misses.
const MissChance = 5

// Strike is the outcome of one attack.
type Strike struct {
	Zone    Zone
	Outcome Outcome
	// Damage is the hit points to remove from the defender, >= 0.
	Damage int
}

// ResolveAttack resolves one strike of attacker against defender on zone, where guard
// is the set of zones the defender is covering.
//
// The checks run in a fixed order and the first match wins: miss, dodge, parry,
// block, crit, then a plain hit. Every roll is drawn even when its chance is zero,
// so a fixed Source yields a fixed outcome.
//
// Precondition: rules, attacker, defender and src must be non-nil; zone must be valid for rules.
// Postcondition: Damage >= 0; Damage >= 1 unless Outcome is miss, dodge, parry or a
// negating block. Neither combatant is mutated.
func ResolveAttack(rules *Ruleset, attacker, defender *Combatant, zone Zone, guard []Zone, src dice.Source) Strike {
	s := Strike{Zone: zone}

	if dice.Percent(src, MissChance) {
		s.Outcome = OutcomeMiss
		return s
	}
	if dice.Percent(src, defender.DodgeChance) {
		s.Outcome = OutcomeDodge
		return s
	}
	if dice.Percent(src, defender.ParryChance) {
		s.Outcome = OutcomeParry
		return s
	}

	blocked := guarded(guard, zone)
	if blocked && rules.Block == BlockNegate {
		s.Outcome = OutcomeBlock
		return s
	}

	crit := false
	if blocked {
		s.Outcome = OutcomeBlock
	} else if dice.Percent(src, attacker.CritChance) {
		crit = true
		s.Outcome = OutcomeCrit
	} else {
		s.Outcome = OutcomeHit
	}

	base := dice.Between(src, attacker.DamageMin, attacker.DamageMax)

	// Damage is tracked as num/den to keep the 10%-per-strength bonus exact.
	bonus := attacker.Strength - 3
	if bonus < 0 {
		bonus = 0
	}
	num := base * (10 + bonus)
	den := 10
	if crit {
		num *= 2
	}
	if blocked {
		den *= 4
	}
	armor := defender.Armor.For(rules.Slot(zone))
	dmg := (num - armor*den) / den
	if dmg < 1 {
		dmg = 1
	}
	s.Damage = dmg
	return s
}
