package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typequest/core"
	"typequest/engine"
)

// newTestStore spins up a miniredis server and returns a store plus cleanup.
func newTestStore(t *testing.T) (*Store, *goredis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return New(client), client, cleanup
}

func TestStore_GetStateNotFound(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()

	_, err := store.GetState(context.Background(), "ghost")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestStore_SaveAndGetState(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	st := core.NewUserState("alice")
	st.XP = 4200
	st.Words = 10000
	st.Badges["speed_master"] = struct{}{}
	st.RecordCompletion("Fast Fingers", time.Now().UTC().Truncate(time.Second))

	require.NoError(t, store.SaveState(ctx, st))

	got, err := store.GetState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4200), got.XP)
	assert.Equal(t, int64(10000), got.Words)
	assert.Contains(t, got.Badges, "speed_master")
	assert.Equal(t, 1, got.CompletionCount("Fast Fingers"))
}

func TestStore_SaveMirrorsXPAndBadges(t *testing.T) {
	store, client, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	alice := core.NewUserState("alice")
	alice.XP = 300
	alice.Badges["speed_master"] = struct{}{}
	require.NoError(t, store.SaveState(ctx, alice))

	bob := core.NewUserState("bob")
	bob.XP = 100
	require.NoError(t, store.SaveState(ctx, bob))

	top, err := store.TopXP(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []core.UserID{"alice", "bob"}, top)

	has, err := store.HasBadge(ctx, "alice", "speed_master")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasBadge(ctx, "bob", "speed_master")
	require.NoError(t, err)
	assert.False(t, has)

	// badge set is rewritten on save, not accumulated
	score, err := client.ZScore(ctx, xpKey, "alice").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(300), score)
}

func TestStore_Delete(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	st := core.NewUserState("alice")
	st.XP = 100
	st.Badges["starter"] = struct{}{}
	require.NoError(t, store.SaveState(ctx, st))

	require.NoError(t, store.Delete(ctx, "alice"))

	_, err := store.GetState(ctx, "alice")
	require.ErrorIs(t, err, engine.ErrNotFound)

	top, err := store.TopXP(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestStore_SaveOverwritesBadgeSet(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	st := core.NewUserState("alice")
	st.Badges["old"] = struct{}{}
	require.NoError(t, store.SaveState(ctx, st))

	delete(st.Badges, "old")
	st.Badges["new"] = struct{}{}
	require.NoError(t, store.SaveState(ctx, st))

	has, err := store.HasBadge(ctx, "alice", "old")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = store.HasBadge(ctx, "alice", "new")
	require.NoError(t, err)
	assert.True(t, has)
}
