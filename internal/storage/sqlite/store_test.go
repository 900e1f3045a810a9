package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/monster"
	"github.com/cory-johannsen/arena/internal/storage"
	"github.com/cory-johannsen/arena/internal/storage/sqlite"
)

func openStore(t *testing.T, busyTimeout time.Duration) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "arena.db"), busyTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createPlayer(t *testing.T, store *sqlite.Store, name string) *character.Profile {
	t.Helper()
	p, err := character.New(name)
	require.NoError(t, err)
	created, err := store.Players().Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ", time.Second)
	assert.Error(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.db")
	store, err := sqlite.Open(path, time.Second)
	require.NoError(t, err)
	p, err := character.New("hero")
	require.NoError(t, err)
	created, err := store.Players().Create(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = sqlite.Open(path, time.Second)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Players().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hero", got.Name)
	assert.NoError(t, store.Health(context.Background(), time.Second))
}

func TestPlayerRepository_CreateAndGet(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()

	p := createPlayer(t, store, "hero")
	assert.Greater(t, p.ID, int64(0))
	assert.Equal(t, 36, p.MaxHP)
	assert.Equal(t, 36, p.CurrentHP)
	assert.False(t, p.CreatedAt.IsZero())

	_, err := store.Players().Create(ctx, &character.Profile{Name: "hero"})
	assert.ErrorIs(t, err, sqlite.ErrPlayerNameTaken)

	_, err = store.Players().GetByID(ctx, 4242)
	assert.ErrorIs(t, err, storage.ErrPlayerNotFound)
}

func TestPlayerRepository_SnapshotCountsEquippedWeapons(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()
	p := createPlayer(t, store, "hero")
	players := store.Players()

	require.NoError(t, players.AddItem(ctx, p.ID, "Sword", storage.ItemTypeWeapon, true))
	require.NoError(t, players.AddItem(ctx, p.ID, "Axe", storage.ItemTypeWeapon, true))
	require.NoError(t, players.AddItem(ctx, p.ID, "Spare Dagger", storage.ItemTypeWeapon, false))
	require.NoError(t, players.AddItem(ctx, p.ID, "Helmet", "armor", true))

	snap, err := store.Snapshot(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.EquippedWeapons)
	assert.Equal(t, p.ID, snap.PlayerID)

	_, err = store.Snapshot(ctx, 4242)
	assert.ErrorIs(t, err, storage.ErrPlayerNotFound)
}

func TestPlayerRepository_DistributeStat(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()
	players := store.Players()
	p, err := character.New("hero")
	require.NoError(t, err)
	p.FreeStats = 2
	p, err = players.Create(ctx, p)
	require.NoError(t, err)

	updated, err := players.DistributeStat(ctx, p.ID, character.StatEndurance)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Stats.Endurance)
	assert.Equal(t, 48, updated.MaxHP)
	assert.Equal(t, 36, updated.CurrentHP)
	assert.Equal(t, 1, updated.FreeStats)

	_, err = players.DistributeStat(ctx, p.ID, character.Stat("luck"))
	assert.ErrorIs(t, err, character.ErrUnknownStat)

	got, err := players.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stats.Endurance)
	assert.Equal(t, 48, got.MaxHP)
	assert.Equal(t, 1, got.FreeStats)

	_, err = players.DistributeStat(ctx, p.ID, character.StatStrength)
	require.NoError(t, err)
	_, err = players.DistributeStat(ctx, p.ID, character.StatStrength)
	assert.ErrorIs(t, err, character.ErrNoFreeStats)

	_, err = players.DistributeStat(ctx, 4242, character.StatStrength)
	assert.ErrorIs(t, err, storage.ErrPlayerNotFound)
}

func TestStore_CreateGetActive(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()
	p := createPlayer(t, store, "hero")
	other := createPlayer(t, store, "rival")

	c, err := store.Create(ctx, p.ID, storage.StatusActive, []byte(`{"status":"active"}`))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, p.ID, c.OwnerID)

	got, err := store.Get(ctx, c.ID, p.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"active"}`, string(got.State))

	_, err = store.Get(ctx, c.ID, other.ID)
	assert.ErrorIs(t, err, storage.ErrCombatNotFound, "foreign combats look missing")
	_, err = store.Get(ctx, uuid.New(), p.ID)
	assert.ErrorIs(t, err, storage.ErrCombatNotFound)

	active, err := store.Active(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, active.ID)

	_, err = store.Create(ctx, p.ID, storage.StatusActive, []byte(`{}`))
	assert.ErrorIs(t, err, storage.ErrActiveCombatExists)

	_, err = store.Create(ctx, p.ID, "victory", []byte(`{}`))
	assert.NoError(t, err, "finished combats do not count against the active limit")
}

func TestStore_WithCombatCommitsAndRollsBack(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()
	p := createPlayer(t, store, "hero")

	c, err := store.Create(ctx, p.ID, storage.StatusActive, []byte(`{"turn":1}`))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithCombat(ctx, c.ID, p.ID, func(ctx context.Context, tx storage.CombatTx) error {
		require.NoError(t, tx.Save(ctx, storage.StatusActive, []byte(`{"turn":2}`)))
		require.NoError(t, tx.SetCurrentHP(ctx, p.ID, 5))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, c.ID, p.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"turn":1}`, string(got.State))
	prof, err := store.Players().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 36, prof.CurrentHP, "a failed turn leaves no partial writes")

	err = store.WithCombat(ctx, c.ID, p.ID, func(ctx context.Context, tx storage.CombatTx) error {
		assert.JSONEq(t, `{"turn":1}`, string(tx.Combat().State))
		return tx.Save(ctx, "defeat", []byte(`{"turn":2}`))
	})
	require.NoError(t, err)

	got, err = store.Get(ctx, c.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "defeat", got.Status)
	_, err = store.Active(ctx, p.ID)
	assert.ErrorIs(t, err, storage.ErrCombatNotFound)
}

func TestStore_WithCombatRejectsForeignOwner(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()
	p := createPlayer(t, store, "hero")
	other := createPlayer(t, store, "rival")

	c, err := store.Create(ctx, p.ID, storage.StatusActive, []byte(`{}`))
	require.NoError(t, err)

	called := false
	err = store.WithCombat(ctx, c.ID, other.ID, func(context.Context, storage.CombatTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, storage.ErrCombatNotFound)
	assert.False(t, called)
}

func TestStore_WriteLockContentionIsBusy(t *testing.T) {
	store := openStore(t, 100*time.Millisecond)
	ctx := context.Background()
	p := createPlayer(t, store, "hero")

	c, err := store.Create(ctx, p.ID, storage.StatusActive, []byte(`{}`))
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithCombat(ctx, c.ID, p.ID, func(context.Context, storage.CombatTx) error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err = store.WithCombat(ctx, c.ID, p.ID, func(context.Context, storage.CombatTx) error { return nil })
	assert.ErrorIs(t, err, storage.ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestCombatTx_ApplyRewardWritesLedger(t *testing.T) {
	store := openStore(t, time.Second)
	ctx := context.Background()
	p := createPlayer(t, store, "hero")

	c, err := store.Create(ctx, p.ID, storage.StatusActive, []byte(`{}`))
	require.NoError(t, err)

	err = store.WithCombat(ctx, c.ID, p.ID, func(ctx context.Context, tx storage.CombatTx) error {
		if err := tx.ApplyReward(ctx, p.ID, 1010, 5, "Reward for defeating Grey Wolf"); err != nil {
			return err
		}
		return tx.SetCurrentHP(ctx, p.ID, 500)
	})
	require.NoError(t, err)

	prof, err := store.Players().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prof.Level)
	assert.Equal(t, 10, prof.Experience)
	assert.Equal(t, 5, prof.Coins)
	assert.Equal(t, 48, prof.MaxHP)
	assert.Equal(t, 48, prof.CurrentHP, "hit points are clamped to the maximum")

	ledger, err := store.Players().Ledger(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, storage.CurrencyCoins, ledger[0].Currency)
	assert.Equal(t, storage.KindReward, ledger[0].Kind)
	assert.Equal(t, 5, ledger[0].BalanceAfter)
	assert.Equal(t, "Reward for defeating Grey Wolf", ledger[0].Description)
}

func TestMonsterRepository_UpsertAndList(t *testing.T) {
	store := openStore(t, time.Second)
	repo := store.Monsters()
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, tm := range monster.DefaultTemplates() {
		require.NoError(t, repo.Upsert(ctx, tm))
	}
	wolf := *monster.DefaultTemplates()[1]
	wolf.HP = 75
	require.NoError(t, repo.Upsert(ctx, &wolf))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(monster.DefaultTemplates()))
	assert.Equal(t, "stray_dog", list[0].ID)
	assert.Equal(t, 75, list[1].HP)
}
