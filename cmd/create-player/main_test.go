package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/storage/sqlite"
)

func TestCreatePlayer(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "arena.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	auth := gameserver.NewAuthenticator("0123456789abcdef0123456789abcdef", "arena", time.Hour)

	p, token, err := createPlayer(ctx, store.Players(), auth, "Hero", 2)
	require.NoError(t, err)
	assert.Positive(t, p.ID)

	id, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, id)

	snap, err := store.Snapshot(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.EquippedWeapons)
	assert.Equal(t, p.MaxHP, snap.CurrentHP)

	_, _, err = createPlayer(ctx, store.Players(), auth, "Hero", 0)
	assert.ErrorIs(t, err, sqlite.ErrPlayerNameTaken)

	_, _, err = createPlayer(ctx, store.Players(), auth, "", 0)
	assert.Error(t, err)
}
