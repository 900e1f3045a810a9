// Package monster provides monster template definitions, their YAML loader and
// the level-matching catalog combats draw their opponents from.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a static monster definition.
type Template struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Level     int    `yaml:"level"`
	HP        int    `yaml:"hp"`
	Strength  int    `yaml:"strength"`
	Agility   int    `yaml:"agility"`
	Intuition int    `yaml:"intuition"`
	Endurance int    `yaml:"endurance"`

	// Speed feeds initiative rolls; zero means "use Agility".
	Speed int `yaml:"speed"`

	DamageMin   int `yaml:"damage_min"`
	DamageMax   int `yaml:"damage_max"`
	CritChance  int `yaml:"crit_chance"`
	DodgeChance int `yaml:"dodge_chance"`
	ParryChance int `yaml:"parry_chance"`

	// Armor is flat: it applies to every zone.
	Armor      int `yaml:"armor"`
	XPReward   int `yaml:"xp_reward"`
	CoinReward int `yaml:"coin_reward"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 0, HP >= 1,
// 0 <= DamageMin <= DamageMax and rewards and armor are non-negative.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level < 0 {
		return fmt.Errorf("monster template %q: level must be >= 0", t.ID)
	}
	if t.HP < 1 {
		return fmt.Errorf("monster template %q: hp must be >= 1", t.ID)
	}
	if t.DamageMin < 0 || t.DamageMax < t.DamageMin {
		return fmt.Errorf("monster template %q: damage range [%d, %d] is invalid", t.ID, t.DamageMin, t.DamageMax)
	}
	if t.Armor < 0 {
		return fmt.Errorf("monster template %q: armor must be >= 0", t.ID)
	}
	if t.XPReward < 0 || t.CoinReward < 0 {
		return fmt.Errorf("monster template %q: rewards must be >= 0", t.ID)
	}
	return nil
}

// InitiativeSpeed returns the speed used for initiative rolls.
func (t *Template) InitiativeSpeed() int {
	if t.Speed != 0 {
		return t.Speed
	}
	return t.Agility
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
