package combat

import (
	"encoding/json"
	"fmt"
)

// Mode selects the turn orchestrator a combat uses.
type Mode string

const (
	// ModeDuel is one player against one monster, both acting every turn.
	ModeDuel Mode = "duel"
	// ModeRoster is an initiative-ordered roster where one participant acts per step.
	ModeRoster Mode = "roster"
)

// ValidMode reports whether m is a known mode.
func ValidMode(m Mode) bool {
	return m == ModeDuel || m == ModeRoster
}

// Status is the lifecycle status of a combat.
type Status string

const (
	StatusActive  Status = "active"
	StatusVictory Status = "victory"
	StatusDefeat  Status = "defeat"
	StatusFled    Status = "fled"
)

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusVictory || s == StatusDefeat || s == StatusFled
}

const (
	WinnerPlayer  = "player"
	WinnerMonster = "monster"
)

// DefaultLogLimit is the number of log entries kept when a state is encoded.
const DefaultLogLimit = 50

// State is the authoritative game state of one combat. It is persisted as an
// opaque blob; only this package interprets it.
//
// Invariant: every combatant satisfies 0 <= CurrentHP <= MaxHP.
// Invariant: once Status is terminal it never changes again.
type State struct {
	Mode          Mode     `json:"mode"`
	Ruleset       string   `json:"ruleset"`
	Status        Status   `json:"status"`
	Turn          int      `json:"turn"`
	Winner        string   `json:"winner"`
	Log           []string `json:"log"`
	FinishMessage string   `json:"finish_message,omitempty"`

	// Duel mode.
	Player  *Combatant `json:"player,omitempty"`
	Monster *Combatant `json:"monster,omitempty"`

	// Roster mode.
	Entities         map[string]*Combatant `json:"entities_by_id,omitempty"`
	TurnOrder        []string              `json:"turn_order,omitempty"`
	CurrentTurnIndex int                   `json:"current_turn_index"`
}

// IsTerminal reports whether the combat is over.
func (s *State) IsTerminal() bool { return s.Status.Terminal() }

// Rules returns the ruleset the combat was started under.
func (s *State) Rules() (*Ruleset, error) {
	return LookupRuleset(s.Ruleset)
}

// Players returns the player-side combatants.
func (s *State) Players() []*Combatant {
	return s.side(true)
}

// Monsters returns the monster-side combatants in turn order.
func (s *State) Monsters() []*Combatant {
	return s.side(false)
}

func (s *State) side(player bool) []*Combatant {
	if s.Mode == ModeDuel {
		if player && s.Player != nil {
			return []*Combatant{s.Player}
		}
		if !player && s.Monster != nil {
			return []*Combatant{s.Monster}
		}
		return nil
	}
	var out []*Combatant
	for _, id := range s.TurnOrder {
		c := s.Entities[id]
		if c != nil && c.IsPlayer == player {
			out = append(out, c)
		}
	}
	return out
}

// PlayerHP returns the current hit points of the first player-side combatant.
func (s *State) PlayerHP() int {
	ps := s.Players()
	if len(ps) == 0 {
		return 0
	}
	return ps[0].CurrentHP
}

func (s *State) logf(format string, args ...any) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

func anyLiving(cs []*Combatant) bool {
	for _, c := range cs {
		if !c.IsDead() {
			return true
		}
	}
	return false
}

// checkTermination ends the combat when one side has no living members.
//
// Postcondition: Returns true iff the state is terminal after the check.
func (s *State) checkTermination() bool {
	if s.IsTerminal() {
		return true
	}
	switch {
	case !anyLiving(s.Monsters()):
		s.finish(StatusVictory, WinnerPlayer)
		s.logf("The enemy is defeated!")
		return true
	case !anyLiving(s.Players()):
		s.finish(StatusDefeat, WinnerMonster)
		s.logf("You have been defeated...")
		return true
	}
	return false
}

// finish moves an active combat to a terminal status. Terminal states are left untouched.
func (s *State) finish(status Status, winner string) {
	if s.IsTerminal() {
		return
	}
	s.Status = status
	s.Winner = winner
}

// Encode serializes the state, keeping only the most recent limit log entries.
// A limit <= 0 keeps the whole log. The receiver is not modified.
func (s *State) Encode(limit int) ([]byte, error) {
	out := *s
	if limit > 0 && len(out.Log) > limit {
		out.Log = out.Log[len(out.Log)-limit:]
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encoding combat state: %w", err)
	}
	return data, nil
}

// Decode parses a state previously produced by Encode.
//
// Postcondition: Returns a state with a known mode and ruleset, or an error.
func Decode(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding combat state: %w", err)
	}
	if !ValidMode(s.Mode) {
		return nil, fmt.Errorf("decoding combat state: unknown mode %q", s.Mode)
	}
	if !ValidRuleset(s.Ruleset) {
		return nil, fmt.Errorf("decoding combat state: unknown ruleset %q", s.Ruleset)
	}
	return &s, nil
}
