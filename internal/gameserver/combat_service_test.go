package gameserver_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/monster"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/storage"
	"github.com/cory-johannsen/arena/internal/storage/sqlite"
)

// fixedSrc always returns min(v, n-1).
type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

// dummy takes two hits from an unarmed level 0 player and hits back for 1.
func dummy() *monster.Template {
	return &monster.Template{ID: "training_dummy", Name: "Training Dummy", Level: 0, HP: 2,
		Strength: 3, Agility: 3, DamageMin: 1, DamageMax: 1, XPReward: 10, CoinReward: 3}
}

// brute kills an unarmed level 0 player with one strike.
func brute() *monster.Template {
	return &monster.Template{ID: "brute", Name: "Brute", Level: 0, HP: 1000,
		Strength: 3, Agility: 3, DamageMin: 100, DamageMax: 100, XPReward: 500, CoinReward: 50}
}

type fixture struct {
	store *sqlite.Store
	svc   *gameserver.CombatService
	hero  *character.Profile
}

func newFixture(t *testing.T, tmpl *monster.Template, opts combat.BuildOptions, src fixedSrc) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "arena.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p, err := character.New("hero")
	require.NoError(t, err)
	hero, err := store.Players().Create(context.Background(), p)
	require.NoError(t, err)

	cat, err := monster.NewCatalog([]*monster.Template{tmpl})
	require.NoError(t, err)
	svc := gameserver.NewCombatService(store, cat, src, opts, 0, zaptest.NewLogger(t))
	return &fixture{store: store, svc: svc, hero: hero}
}

func (f *fixture) profile(t *testing.T) *character.Profile {
	t.Helper()
	p, err := f.store.Players().GetByID(context.Background(), f.hero.ID)
	require.NoError(t, err)
	return p
}

func legsOpen() combat.TurnInput {
	return combat.TurnInput{AttackZone: 1, Defense: combat.Defense{Zones: []combat.Zone{1, 2}}}
}

func TestBegin_ReturnsExistingCombat(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()

	first, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)
	assert.False(t, first.Existing)
	assert.Equal(t, combat.StatusActive, first.State.Status)
	assert.Equal(t, "Training Dummy", first.State.Monster.Name)

	second, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.ID, second.ID)
}

func TestBegin_ConcurrentCallsShareOneCombat(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()

	const n = 16
	var (
		wg    sync.WaitGroup
		views = make([]*gameserver.View, n)
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			views[i], errs[i] = f.svc.Begin(ctx, f.hero.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "call %d", i)
		assert.Equal(t, views[0].ID, views[i].ID, "call %d", i)
		if !views[i].Existing {
			created++
		}
	}
	assert.Equal(t, 1, created, "exactly one call creates the combat")

	active, err := f.store.Active(ctx, f.hero.ID)
	require.NoError(t, err)
	assert.Equal(t, views[0].ID, active.ID)
	assert.Equal(t, storage.StatusActive, active.Status)
}

func TestBegin_UnknownPlayer(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	_, err := f.svc.Begin(context.Background(), 4242)
	assert.ErrorIs(t, err, gameserver.ErrPlayerNotFound)
}

func TestBegin_TooWeak(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	p, err := character.New("wounded")
	require.NoError(t, err)
	p.CurrentHP = 0
	wounded, err := f.store.Players().Create(ctx, p)
	require.NoError(t, err)

	_, err = f.svc.Begin(ctx, wounded.ID)
	assert.ErrorIs(t, err, gameserver.ErrTooWeak)
}

func TestSubmitTurn_DuelVictorySettlesOnce(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	v, err := f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, legsOpen())
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeNone, v.Notice)
	assert.Equal(t, 2, v.State.Turn)
	assert.Equal(t, 1, v.State.Monster.CurrentHP)
	assert.Equal(t, 35, v.State.Player.CurrentHP, "the dummy strikes the open legs")

	v, err = f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, legsOpen())
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeVictory, v.Notice)
	assert.Equal(t, combat.StatusVictory, v.State.Status)
	assert.Equal(t, 10, v.Settlement.XP)
	assert.Equal(t, 3, v.Settlement.Coins)
	assert.Equal(t, "Victory! Gained 10 experience and 3 coins.", v.State.FinishMessage)

	p := f.profile(t)
	assert.Equal(t, 10, p.Experience)
	assert.Equal(t, 3, p.Coins)
	assert.Equal(t, 35, p.CurrentHP)

	again, err := f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, legsOpen())
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeAlreadyFinished, again.Notice)
	assert.Equal(t, v.State.Turn, again.State.Turn)

	ledger, err := f.store.Players().Ledger(ctx, f.hero.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1, "a finished combat is never settled twice")
	assert.Equal(t, "Reward for defeating Training Dummy", ledger[0].Description)

	_, err = f.store.Active(ctx, f.hero.ID)
	assert.ErrorIs(t, err, storage.ErrCombatNotFound)
}

func TestSubmitTurn_GuardedZoneTakesNoDamage(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	in := combat.TurnInput{AttackZone: 1, Defense: combat.Defense{Zones: []combat.Zone{3, 4}}}
	v, err := f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 36, v.State.Player.CurrentHP)
}

func TestSubmitTurn_DuelDefeat(t *testing.T) {
	f := newFixture(t, brute(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	v, err := f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, legsOpen())
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeDefeat, v.Notice)
	assert.Equal(t, combat.StatusDefeat, v.State.Status)
	assert.Equal(t, 0, v.State.Player.CurrentHP)

	p := f.profile(t)
	assert.Equal(t, 1, p.CurrentHP)
	assert.Equal(t, 0, p.Experience)
	ledger, err := f.store.Players().Ledger(ctx, f.hero.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestSubmitTurn_InvalidInputPersistsNothing(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	bad := []combat.TurnInput{
		{AttackZone: 0, Defense: combat.Defense{Zones: []combat.Zone{1, 2}}},
		{AttackZone: 1, Defense: combat.Defense{Zones: []combat.Zone{1}}},
		{AttackZone: 1, Defense: combat.Defense{Zones: []combat.Zone{2, 2}}},
	}
	for _, in := range bad {
		_, err := f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, in)
		assert.ErrorIs(t, err, gameserver.ErrInvalidInput)
	}

	v, err := f.svc.State(ctx, begun.ID, f.hero.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.State.Turn)
	assert.Len(t, v.State.Log, 1)
}

func TestState_ForeignCombatIsNotFound(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	p, err := character.New("rival")
	require.NoError(t, err)
	rival, err := f.store.Players().Create(ctx, p)
	require.NoError(t, err)

	_, err = f.svc.State(ctx, begun.ID, rival.ID)
	assert.ErrorIs(t, err, gameserver.ErrCombatNotFound)
	_, err = f.svc.SubmitTurn(ctx, begun.ID, rival.ID, legsOpen())
	assert.ErrorIs(t, err, gameserver.ErrCombatNotFound)
	_, err = f.svc.State(ctx, uuid.New(), f.hero.ID)
	assert.ErrorIs(t, err, gameserver.ErrCombatNotFound)
}

func TestFlee_DuelIsWrongMode(t *testing.T) {
	f := newFixture(t, dummy(), combat.BuildOptions{}, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	_, err = f.svc.Flee(ctx, begun.ID, f.hero.ID)
	assert.ErrorIs(t, err, gameserver.ErrWrongMode)
}

func TestRoster_SubmitTurnRunsMonstersUntilPlayerIsDue(t *testing.T) {
	opts := combat.BuildOptions{Mode: combat.ModeRoster, Monsters: 1}
	f := newFixture(t, dummy(), opts, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)
	require.Equal(t, []string{combat.PlayerID, "monster-1"}, begun.State.TurnOrder)

	v, err := f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, legsOpen())
	require.NoError(t, err)
	assert.Equal(t, 1, v.State.Entities["monster-1"].CurrentHP)
	assert.Equal(t, 35, v.State.Entities[combat.PlayerID].CurrentHP)
	assert.Equal(t, 0, v.State.CurrentTurnIndex, "the player is due again")
	assert.Equal(t, 2, v.State.Turn)

	v, err = f.svc.SubmitTurn(ctx, begun.ID, f.hero.ID, legsOpen())
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeVictory, v.Notice)
	assert.Equal(t, 35, f.profile(t).CurrentHP)
}

func TestRoster_FleeSucceeds(t *testing.T) {
	opts := combat.BuildOptions{Mode: combat.ModeRoster, Monsters: 1}
	f := newFixture(t, dummy(), opts, fixedSrc{v: 10})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	v, err := f.svc.Flee(ctx, begun.ID, f.hero.ID)
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeFled, v.Notice)
	assert.Equal(t, combat.StatusFled, v.State.Status)

	p := f.profile(t)
	assert.Equal(t, 36, p.CurrentHP)
	assert.Equal(t, 0, p.Coins)
	_, err = f.store.Active(ctx, f.hero.ID)
	assert.ErrorIs(t, err, storage.ErrCombatNotFound)
}

func TestRoster_FleeFailsAndMonstersAct(t *testing.T) {
	opts := combat.BuildOptions{Mode: combat.ModeRoster, Monsters: 1}
	f := newFixture(t, dummy(), opts, fixedSrc{v: 50})
	ctx := context.Background()
	begun, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)

	v, err := f.svc.Flee(ctx, begun.ID, f.hero.ID)
	require.NoError(t, err)
	assert.Equal(t, gameserver.NoticeFleeFailed, v.Notice)
	assert.Equal(t, combat.StatusActive, v.State.Status)
	assert.Equal(t, 35, v.State.Entities[combat.PlayerID].CurrentHP)
	assert.Equal(t, 0, v.State.CurrentTurnIndex)
}

func TestRoster_OpeningTurnDefeatIsSettled(t *testing.T) {
	opts := combat.BuildOptions{Mode: combat.ModeRoster, Monsters: 1, MonsterFirst: true, ResolveOpening: true}
	f := newFixture(t, brute(), opts, fixedSrc{v: 50})
	ctx := context.Background()

	v, err := f.svc.Begin(ctx, f.hero.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.StatusDefeat, v.State.Status)
	assert.Equal(t, gameserver.NoticeDefeat, v.Notice)
	assert.Equal(t, 1, f.profile(t).CurrentHP)

	_, err = f.store.Active(ctx, f.hero.ID)
	assert.ErrorIs(t, err, storage.ErrCombatNotFound)
}

// stubStore drives the service's error mapping without a database.
type stubStore struct {
	gameserver.CombatStore
	rec       *storage.Combat
	withErr   error
	rewardErr error
	saved     bool
}

func (s *stubStore) WithCombat(ctx context.Context, _ uuid.UUID, _ int64, fn storage.CombatFunc) error {
	if s.withErr != nil {
		return s.withErr
	}
	return fn(ctx, &stubTx{store: s})
}

type stubTx struct{ store *stubStore }

func (t *stubTx) Combat() *storage.Combat { return t.store.rec }

func (t *stubTx) Save(context.Context, string, []byte) error {
	t.store.saved = true
	return nil
}

func (t *stubTx) ApplyReward(context.Context, int64, int, int, string) error {
	return t.store.rewardErr
}

func (t *stubTx) SetCurrentHP(context.Context, int64, int) error { return nil }

func nearlyWon(t *testing.T) *storage.Combat {
	t.Helper()
	snap := character.Snapshot{PlayerID: 1, Name: "Hero", CurrentHP: 36, MaxHP: 36, Strength: 3, Agility: 3}
	tmpl := dummy()
	tmpl.HP = 1
	cat, err := monster.NewCatalog([]*monster.Template{tmpl})
	require.NoError(t, err)
	s, err := combat.Build(snap, cat, combat.BuildOptions{}, fixedSrc{v: 50})
	require.NoError(t, err)
	blob, err := s.Encode(0)
	require.NoError(t, err)
	return &storage.Combat{ID: uuid.New(), OwnerID: 1, Status: storage.StatusActive, State: blob}
}

func TestSubmitTurn_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		store *stubStore
		want  error
	}{
		"busy":       {store: &stubStore{withErr: storage.ErrBusy}, want: gameserver.ErrCombatBusy},
		"not found":  {store: &stubStore{withErr: storage.ErrCombatNotFound}, want: gameserver.ErrCombatNotFound},
		"settlement": {store: &stubStore{rewardErr: errors.New("ledger down")}, want: gameserver.ErrSettlement},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tc.store.rec = nearlyWon(t)
			cat, err := monster.NewCatalog(nil)
			require.NoError(t, err)
			svc := gameserver.NewCombatService(tc.store, cat, fixedSrc{v: 50}, combat.BuildOptions{}, 0, zaptest.NewLogger(t))

			_, err = svc.SubmitTurn(context.Background(), tc.store.rec.ID, 1, legsOpen())
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, tc.store.saved, "a failed turn never saves")
		})
	}
}
