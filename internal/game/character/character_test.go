package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/character"
)

func newProfile(t *testing.T) *character.Profile {
	t.Helper()
	p, err := character.New("Tester")
	require.NoError(t, err)
	return p
}

func TestNew_StartingValues(t *testing.T) {
	p := newProfile(t)

	assert.Equal(t, 0, p.Level)
	assert.Equal(t, 3, p.Stats.Strength)
	assert.Equal(t, 3, p.Stats.Endurance)
	assert.Equal(t, 36, p.MaxHP, "max hp is endurance*12")
	assert.Equal(t, 36, p.CurrentHP)
	assert.Equal(t, 0, p.MaxMP)
	assert.Equal(t, 1000, p.ExperienceToNext)
	assert.Equal(t, 500, p.InventorySlots())
}

func TestNew_EmptyName(t *testing.T) {
	_, err := character.New("")
	assert.Error(t, err)
}

func TestGainExperience_NoLevel(t *testing.T) {
	p := newProfile(t)
	assert.Equal(t, 0, p.GainExperience(10))
	assert.Equal(t, 10, p.Experience)
	assert.Equal(t, 0, p.Level)
}

func TestGainExperience_SingleLevel(t *testing.T) {
	p := newProfile(t)
	p.CurrentHP = 5

	levels := p.GainExperience(1100)

	assert.Equal(t, 1, levels)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 100, p.Experience)
	assert.Equal(t, 1200, p.ExperienceToNext)
	assert.Equal(t, 4, p.Stats.Endurance)
	assert.Equal(t, 3, p.FreeStats)
	assert.Equal(t, 48, p.MaxHP)
	assert.Equal(t, 48, p.CurrentHP, "level-up restores hp to the new maximum")
	assert.Equal(t, 0, p.BonusInventorySlots)
}

func TestGainExperience_Cascade(t *testing.T) {
	p := newProfile(t)

	// 1000 + 1200 + 1440 = 3640
	levels := p.GainExperience(3650)

	assert.Equal(t, 3, levels)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 10, p.Experience)
	assert.Equal(t, 1728, p.ExperienceToNext)
	assert.Equal(t, 9, p.FreeStats)
	assert.Equal(t, 40, p.BonusInventorySlots)
	assert.Equal(t, 540, p.InventorySlots())
}

func TestGainExperience_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p, _ := character.New("prop")
		amount := rapid.IntRange(0, 100000).Draw(rt, "amount")
		levels := p.GainExperience(amount)

		assert.Less(rt, p.Experience, p.ExperienceToNext)
		assert.Equal(rt, levels, p.Level)
		assert.Equal(rt, 3*levels, p.FreeStats)
		assert.Equal(rt, p.MaxHP, p.Stats.Endurance*12)
		assert.LessOrEqual(rt, p.CurrentHP, p.MaxHP)
	})
}

func TestDistributeStat(t *testing.T) {
	p := newProfile(t)
	p.GainExperience(1000)

	require.NoError(t, p.DistributeStat(character.StatIntelligence))
	assert.Equal(t, 1, p.Stats.Intelligence)
	assert.Equal(t, 40, p.MaxMP)
	assert.Equal(t, 2, p.FreeStats)

	v, ok := p.Stats.Get(character.StatIntelligence)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestDistributeStat_Errors(t *testing.T) {
	p := newProfile(t)
	assert.ErrorIs(t, p.DistributeStat(character.StatStrength), character.ErrNoFreeStats)

	p.FreeStats = 1
	assert.ErrorIs(t, p.DistributeStat(character.Stat("luck")), character.ErrUnknownStat)
	assert.Equal(t, 1, p.FreeStats)
}

func TestSetCurrentHP_Clamps(t *testing.T) {
	p := newProfile(t)
	p.SetCurrentHP(-4)
	assert.Equal(t, 0, p.CurrentHP)
	p.SetCurrentHP(1000)
	assert.Equal(t, p.MaxHP, p.CurrentHP)
}

func TestSnapshot(t *testing.T) {
	p := newProfile(t)
	p.ID = 7
	p.Combat.DamageMin = 2
	s := p.Snapshot(2)

	assert.Equal(t, int64(7), s.PlayerID)
	assert.Equal(t, "Tester", s.Name)
	assert.Equal(t, 2, s.Combat.DamageMin)
	assert.Equal(t, 2, s.EquippedWeapons)
	assert.Equal(t, 3, s.Strength)
}
