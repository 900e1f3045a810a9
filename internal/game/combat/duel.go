package combat

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// TurnInput is the player's submission for one turn.
type TurnInput struct {
	AttackZone Zone `json:"attack_zone"`
	Defense
}

// validate checks in against rules and returns the player's defended zones.
func (in TurnInput) validate(rules *Ruleset) ([]Zone, error) {
	if !rules.ValidZone(in.AttackZone) {
		return nil, fmt.Errorf("%w: attack zone must be 1-%d, got %d", ErrInvalidInput, len(rules.Zones), in.AttackZone)
	}
	return rules.Guard(in.Defense)
}

// exchange resolves a strike, applies its damage and appends the log line.
func (s *State) exchange(rules *Ruleset, attacker, defender *Combatant, zone Zone, guard []Zone, src dice.Source) Strike {
	st := ResolveAttack(rules, attacker, defender, zone, guard, src)
	defender.ApplyDamage(st.Damage)
	s.Log = append(s.Log, describe(rules, attacker, defender, st))
	return st
}

func describe(rules *Ruleset, attacker, defender *Combatant, st Strike) string {
	zone := rules.ZoneName(st.Zone)
	switch st.Outcome {
	case OutcomeMiss:
		return fmt.Sprintf("%s missed.", attacker.Name)
	case OutcomeDodge:
		return fmt.Sprintf("%s dodged %s's strike.", defender.Name, attacker.Name)
	case OutcomeParry:
		return fmt.Sprintf("%s parried %s's strike.", defender.Name, attacker.Name)
	}
	if st.Outcome == OutcomeBlock && st.Damage == 0 {
		return fmt.Sprintf("%s blocked %s's strike to the %s.", defender.Name, attacker.Name, zone)
	}
	tag := ""
	switch st.Outcome {
	case OutcomeCrit:
		tag = " (CRIT)"
	case OutcomeBlock:
		tag = " (BLOCKED)"
	}
	return fmt.Sprintf("%s struck %s's %s%s for -%d HP. [%d/%d]",
		attacker.Name, defender.Name, zone, tag, st.Damage, defender.CurrentHP, defender.MaxHP)
}

// ResolveDuelTurn resolves one full duel turn: the monster picks a random attack zone
// and a random defense, the player strikes Attacks times against that defense
// (stopping once the monster falls), then a surviving monster strikes once against
// the player's submitted defense. The turn counter always advances.
//
// A terminal state is returned untouched with a nil error.
//
// Precondition: s, src must be non-nil; s.Mode must be ModeDuel.
// Postcondition: On error the state is unchanged. Otherwise HP stays within
// [0, MaxHP] and Status is terminal iff one side has fallen.
func ResolveDuelTurn(s *State, in TurnInput, src dice.Source) error {
	if s.Mode != ModeDuel {
		return ErrWrongMode
	}
	if s.IsTerminal() {
		return nil
	}
	rules, err := s.Rules()
	if err != nil {
		return err
	}
	guard, err := in.validate(rules)
	if err != nil {
		return err
	}

	player, monster := s.Player, s.Monster
	monsterZone := rules.RandomZone(src)
	monsterGuard := rules.RandomGuard(src)

	attacks := player.Attacks
	if attacks < 1 {
		attacks = 1
	}
	for i := 0; i < attacks && !monster.IsDead(); i++ {
		s.exchange(rules, player, monster, in.AttackZone, monsterGuard, src)
	}

	if !monster.IsDead() {
		s.exchange(rules, monster, player, monsterZone, guard, src)
	}

	s.checkTermination()
	s.Turn++
	return nil
}
