package combat

import (
	"sort"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// RollInitiative sets Initiative on each combatant to speed + 1 + d20-1.
//
// Precondition: src must be non-nil.
// Postcondition: Each c.Initiative is in [Speed+1, Speed+20]; one value is drawn per combatant.
func RollInitiative(combatants []*Combatant, src dice.Source) {
	for _, c := range combatants {
		c.Initiative = c.Speed + 1 + src.Intn(20)
	}
}

// sortByInitiativeDesc sorts combatants in place, highest initiative first.
// Equal initiatives keep their relative order.
func sortByInitiativeDesc(combatants []*Combatant) {
	sort.SliceStable(combatants, func(i, j int) bool {
		return combatants[i].Initiative > combatants[j].Initiative
	})
}

// rotateToFirstMonster rotates order so the first monster in it comes first,
// preserving the cyclic order. An order with no monster is left unchanged.
func rotateToFirstMonster(order []*Combatant) []*Combatant {
	for i, c := range order {
		if !c.IsPlayer {
			if i == 0 {
				return order
			}
			out := make([]*Combatant, 0, len(order))
			out = append(out, order[i:]...)
			return append(out, order[:i]...)
		}
	}
	return order
}
