package monster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// ErrEmptyCatalog is returned by Pick on a catalog with no templates.
var ErrEmptyCatalog = errors.New("monster catalog is empty")

// Catalog is an immutable, level-indexed set of monster templates.
// A Catalog is safe for concurrent use.
type Catalog struct {
	byLevel map[int][]*Template
	levels  []int
	byID    map[string]*Template
}

// NewCatalog builds a catalog from templates. When templates is empty the built-in
// defaults are used instead.
//
// Postcondition: Returns a non-nil Catalog or an error if any template is invalid
// or two templates share an id.
func NewCatalog(templates []*Template) (*Catalog, error) {
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}
	c := &Catalog{
		byLevel: make(map[int][]*Template),
		byID:    make(map[string]*Template, len(templates)),
	}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("monster template %q: duplicate id", t.ID)
		}
		c.byID[t.ID] = t
		if _, ok := c.byLevel[t.Level]; !ok {
			c.levels = append(c.levels, t.Level)
		}
		c.byLevel[t.Level] = append(c.byLevel[t.Level], t)
	}
	sort.Ints(c.levels)
	return c, nil
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int { return len(c.byID) }

// Get returns the template with id, or nil.
func (c *Catalog) Get(id string) *Template { return c.byID[id] }

// Pick selects an opponent template for a player of the given level: a template of
// exactly that level if any exists, otherwise the highest level below it, otherwise
// the lowest level in the catalog. Ties within a level are broken uniformly at random.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a non-nil template, or ErrEmptyCatalog.
func (c *Catalog) Pick(level int, src dice.Source) (*Template, error) {
	if len(c.levels) == 0 {
		return nil, ErrEmptyCatalog
	}
	chosen := c.levels[0]
	for _, l := range c.levels {
		if l > level {
			break
		}
		chosen = l
	}
	pool := c.byLevel[chosen]
	if len(pool) == 1 {
		return pool[0], nil
	}
	return pool[src.Intn(len(pool))], nil
}

// DefaultTemplates returns the built-in monster set used when no catalog is configured.
func DefaultTemplates() []*Template {
	return []*Template{
		{ID: "stray_dog", Name: "Stray Dog", Level: 0, HP: 30, Strength: 2, Agility: 2, Intuition: 2, Endurance: 3,
			DamageMin: 1, DamageMax: 3, CritChance: 5, DodgeChance: 5, Armor: 0, XPReward: 15, CoinReward: 1},
		{ID: "grey_wolf", Name: "Grey Wolf", Level: 1, HP: 60, Strength: 4, Agility: 4, Intuition: 3, Endurance: 5,
			DamageMin: 3, DamageMax: 7, CritChance: 10, DodgeChance: 10, Armor: 1, XPReward: 30, CoinReward: 2},
		{ID: "bandit", Name: "Bandit", Level: 2, HP: 120, Strength: 6, Agility: 5, Intuition: 5, Endurance: 8,
			DamageMin: 5, DamageMax: 12, CritChance: 15, DodgeChance: 12, Armor: 3, XPReward: 60, CoinReward: 5},
		{ID: "ogre_mercenary", Name: "Ogre Mercenary", Level: 3, HP: 250, Strength: 10, Agility: 3, Intuition: 2, Endurance: 15,
			DamageMin: 10, DamageMax: 25, CritChance: 5, DodgeChance: 0, Armor: 5, XPReward: 150, CoinReward: 15},
		{ID: "shadow_assassin", Name: "Shadow Assassin", Level: 4, HP: 200, Strength: 8, Agility: 15, Intuition: 15, Endurance: 10,
			DamageMin: 15, DamageMax: 20, CritChance: 30, DodgeChance: 30, Armor: 2, XPReward: 300, CoinReward: 30},
		{ID: "iron_golem", Name: "Iron Golem", Level: 5, HP: 600, Strength: 20, Agility: 1, Intuition: 1, Endurance: 30,
			DamageMin: 30, DamageMax: 50, CritChance: 0, DodgeChance: 0, Armor: 20, XPReward: 1000, CoinReward: 100},
	}
}
