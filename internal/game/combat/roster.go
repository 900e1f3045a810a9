package combat

import "github.com/cory-johannsen/arena/internal/game/dice"

// FleeChance is the percentage chance that a flee attempt succeeds.
const FleeChance = 50

// CurrentActor returns the roster participant whose turn it is, skipping dead ones.
//
// Postcondition: Returns a living combatant, or nil if none is alive or the
// roster is empty. CurrentTurnIndex points at the returned combatant.
func (s *State) CurrentActor() *Combatant {
	n := len(s.TurnOrder)
	for i := 0; i < n; i++ {
		c := s.Entities[s.TurnOrder[s.CurrentTurnIndex]]
		if c != nil && !c.IsDead() {
			return c
		}
		s.CurrentTurnIndex = (s.CurrentTurnIndex + 1) % n
	}
	return nil
}

// advance moves CurrentTurnIndex to the next living participant, wrapping modulo
// the roster size. Wrapping past the end of the order starts a new round.
func (s *State) advance() {
	n := len(s.TurnOrder)
	for i := 1; i <= n; i++ {
		raw := s.CurrentTurnIndex + i
		next := raw % n
		c := s.Entities[s.TurnOrder[next]]
		if c == nil || c.IsDead() {
			continue
		}
		if raw >= n {
			s.Turn++
		}
		s.CurrentTurnIndex = next
		return
	}
}

// firstLivingOpponent returns the first living combatant in turn order on the
// opposite side of actor.
func (s *State) firstLivingOpponent(actor *Combatant) *Combatant {
	for _, id := range s.TurnOrder {
		c := s.Entities[id]
		if c != nil && c.IsPlayer != actor.IsPlayer && !c.IsDead() {
			return c
		}
	}
	return nil
}

// ResolveRosterTurn resolves exactly one participant's turn. A player actor strikes
// in.AttackZone and its submitted defense becomes its guard; a monster actor strikes
// a random zone against its target's guard and defends with a fresh random guard.
// Termination is checked right after the exchange.
//
// A terminal state is returned untouched with a nil error.
//
// Precondition: s, src must be non-nil; s.Mode must be ModeRoster.
// Postcondition: On error the state is unchanged. Otherwise exactly one exchange
// was logged and, if the combat continues, CurrentTurnIndex points at the next
// living participant.
func ResolveRosterTurn(s *State, in TurnInput, src dice.Source) error {
	if s.Mode != ModeRoster {
		return ErrWrongMode
	}
	if s.IsTerminal() {
		return nil
	}
	rules, err := s.Rules()
	if err != nil {
		return err
	}
	actor := s.CurrentActor()
	if actor == nil {
		s.checkTermination()
		return nil
	}

	if actor.IsPlayer {
		guard, err := in.validate(rules)
		if err != nil {
			return err
		}
		actor.Guard = guard
		if target := s.firstLivingOpponent(actor); target != nil {
			s.exchange(rules, actor, target, in.AttackZone, rules.RandomGuard(src), src)
		}
	} else if target := s.firstLivingOpponent(actor); target != nil {
		s.exchange(rules, actor, target, rules.RandomZone(src), target.Guard, src)
	}

	if s.checkTermination() {
		return nil
	}
	s.advance()
	return nil
}

// ResolveMonsterTurns resolves roster turns while a monster is due to act and the
// combat is active.
//
// Postcondition: Returns the number of turns resolved; afterwards the combat is
// terminal or a player is the current actor.
func ResolveMonsterTurns(s *State, src dice.Source) int {
	if s.Mode != ModeRoster {
		return 0
	}
	n := 0
	for !s.IsTerminal() {
		actor := s.CurrentActor()
		if actor == nil || actor.IsPlayer {
			break
		}
		if err := ResolveRosterTurn(s, TurnInput{}, src); err != nil {
			break
		}
		n++
	}
	return n
}

// AttemptFlee spends the current player's turn on a flee roll. On success the
// combat ends as fled with no winner; on failure the turn passes.
//
// A terminal state is returned untouched with a nil error.
//
// Precondition: s.Mode must be ModeRoster and a player must be the current actor.
// Postcondition: Status is StatusFled, or the turn has advanced.
func AttemptFlee(s *State, src dice.Source) error {
	if s.Mode != ModeRoster {
		return ErrWrongMode
	}
	if s.IsTerminal() {
		return nil
	}
	actor := s.CurrentActor()
	if actor == nil || !actor.IsPlayer {
		return ErrNotPlayersTurn
	}
	if dice.Percent(src, FleeChance) {
		s.finish(StatusFled, "")
		s.logf("%s fled from combat.", actor.Name)
		return nil
	}
	s.logf("%s tried to flee but failed.", actor.Name)
	s.advance()
	return nil
}
