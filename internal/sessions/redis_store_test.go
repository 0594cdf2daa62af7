package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	created := time.Now().Truncate(time.Second)
	session := &Session{ID: "s-1", Ready: true, TTL: 2 * time.Hour, CreatedAt: created}
	require.NoError(t, store.Set(ctx, "session_42_7", session))

	assert.True(t, mr.Exists("tutoria:session:session_42_7"))
	assert.InDelta(t, (2 * time.Hour).Seconds(), mr.TTL("tutoria:session:session_42_7").Seconds(), 5)

	got, err := store.Get(ctx, "session_42_7")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s-1", got.ID)
	assert.True(t, got.Ready)
	assert.Equal(t, 2*time.Hour, got.TTL)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestRedisStore_MissingAndDeleted(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	got, err := store.Get(ctx, "session_1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set(ctx, "session_1", &Session{ID: "s", TTL: time.Hour, CreatedAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "session_1"))

	got, err = store.Get(ctx, "session_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_ExpiresWithSession(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session_1", &Session{ID: "s", TTL: time.Hour, CreatedAt: time.Now()}))
	mr.FastForward(61 * time.Minute)

	got, err := store.Get(ctx, "session_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_AlreadyExpiredIsNotStored(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	stale := &Session{ID: "s", TTL: time.Hour, CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, store.Set(ctx, "session_1", stale))

	assert.False(t, mr.Exists("tutoria:session:session_1"))
}

func TestManager_WithRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	backend := readyBackend()
	mgr := NewManager(backend, store)
	ctx := context.Background()

	first, err := mgr.EnsureSession(ctx, 42, 0)
	require.NoError(t, err)
	second, err := mgr.EnsureSession(ctx, 42, 0)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, backend.startCount())
}
