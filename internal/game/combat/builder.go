package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/monster"
)

// PlayerID is the entity id of the player combatant.
const PlayerID = "player"

// MonsterPicker selects monster templates for a player level.
type MonsterPicker interface {
	Pick(level int, src dice.Source) (*monster.Template, error)
}

// BuildOptions configures how a new combat is assembled.
type BuildOptions struct {
	Mode    Mode
	Ruleset string
	// Monsters is the number of monsters on a roster; duels always have one.
	Monsters int
	// MonsterFirst rotates the roster so its first monster acts first.
	MonsterFirst bool
	// ResolveOpening resolves a monster's opening turn when it heads the roster.
	ResolveOpening bool
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Mode == "" {
		o.Mode = ModeDuel
	}
	if o.Ruleset == "" {
		o.Ruleset = RulesetFourZone
	}
	if o.Monsters < 1 || o.Mode == ModeDuel {
		o.Monsters = 1
	}
	return o
}

// NewPlayer builds the player combatant from a profile snapshot.
//
// Postcondition: Attacks >= 1; 0 <= CurrentHP <= MaxHP.
func NewPlayer(snap character.Snapshot) *Combatant {
	attacks := snap.EquippedWeapons
	if attacks < 1 {
		attacks = 1
	}
	c := &Combatant{
		ID:          PlayerID,
		Name:        snap.Name,
		Level:       snap.Level,
		IsPlayer:    true,
		CurrentHP:   snap.CurrentHP,
		MaxHP:       snap.MaxHP,
		DamageMin:   snap.Combat.DamageMin,
		DamageMax:   snap.Combat.DamageMax,
		CritChance:  snap.Combat.CritChance,
		DodgeChance: snap.Combat.DodgeChance,
		ParryChance: snap.Combat.Parry,
		Armor: Armor{
			Head:  snap.Combat.ArmorHead,
			Body:  snap.Combat.ArmorBody,
			Waist: snap.Combat.ArmorWaist,
			Legs:  snap.Combat.ArmorLegs,
		},
		Strength:  snap.Strength,
		Agility:   snap.Agility,
		Intuition: snap.Intuition,
		Speed:     snap.Agility,
		Attacks:   attacks,
	}
	c.clamp()
	return c
}

// NewMonster builds a live monster combatant from a template.
//
// Precondition: t must be non-nil and valid.
// Postcondition: CurrentHP == MaxHP == t.HP; the template's flat armor covers every slot.
func NewMonster(id string, t *monster.Template) *Combatant {
	return &Combatant{
		ID:          id,
		Name:        t.Name,
		Level:       t.Level,
		CurrentHP:   t.HP,
		MaxHP:       t.HP,
		DamageMin:   t.DamageMin,
		DamageMax:   t.DamageMax,
		CritChance:  t.CritChance,
		DodgeChance: t.DodgeChance,
		ParryChance: t.ParryChance,
		Armor:       FlatArmor(t.Armor),
		Strength:    t.Strength,
		Agility:     t.Agility,
		Intuition:   t.Intuition,
		Speed:       t.InitiativeSpeed(),
		Attacks:     1,
		XPReward:    t.XPReward,
		CoinReward:  t.CoinReward,
	}
}

// Build assembles a new active combat for the player described by snap.
//
// Precondition: monsters and src must be non-nil.
// Postcondition: Returns an active state at turn 1 whose log starts with
// "Combat started!", or an error if the options are invalid or no monster could
// be picked. In roster mode every participant has rolled initiative.
func Build(snap character.Snapshot, monsters MonsterPicker, opts BuildOptions, src dice.Source) (*State, error) {
	opts = opts.withDefaults()
	if !ValidMode(opts.Mode) {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, opts.Mode)
	}
	if _, err := LookupRuleset(opts.Ruleset); err != nil {
		return nil, err
	}
	if monsters == nil {
		return nil, errors.New("building combat: monster picker is nil")
	}

	player := NewPlayer(snap)
	foes := make([]*Combatant, 0, opts.Monsters)
	for i := 0; i < opts.Monsters; i++ {
		t, err := monsters.Pick(snap.Level, src)
		if err != nil {
			return nil, fmt.Errorf("picking monster: %w", err)
		}
		id := "monster"
		if opts.Mode == ModeRoster {
			id = fmt.Sprintf("monster-%d", i+1)
		}
		foes = append(foes, NewMonster(id, t))
	}

	s := &State{
		Mode:    opts.Mode,
		Ruleset: opts.Ruleset,
		Status:  StatusActive,
		Turn:    1,
		Log:     []string{"Combat started!"},
	}

	if opts.Mode == ModeDuel {
		s.Player = player
		s.Monster = foes[0]
		return s, nil
	}

	order := append([]*Combatant{player}, foes...)
	RollInitiative(order, src)
	sortByInitiativeDesc(order)
	if opts.MonsterFirst {
		order = rotateToFirstMonster(order)
	}

	s.Entities = make(map[string]*Combatant, len(order))
	s.TurnOrder = make([]string, 0, len(order))
	for _, c := range order {
		s.Entities[c.ID] = c
		s.TurnOrder = append(s.TurnOrder, c.ID)
	}

	if opts.ResolveOpening && !order[0].IsPlayer {
		if err := ResolveRosterTurn(s, TurnInput{}, src); err != nil {
			return nil, fmt.Errorf("resolving opening turn: %w", err)
		}
	}
	return s, nil
}
