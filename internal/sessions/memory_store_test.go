package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close() //nolint:errcheck
	ctx := context.Background()

	got, err := store.Get(ctx, "session_1")
	require.NoError(t, err)
	assert.Nil(t, got)

	session := &Session{ID: "s-1", Ready: true, TTL: time.Hour, CreatedAt: time.Now()}
	require.NoError(t, store.Set(ctx, "session_1", session))

	got, err = store.Get(ctx, "session_1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.ID)

	// stored by value, callers cannot mutate the cache
	got.ID = "changed"
	again, _ := store.Get(ctx, "session_1")
	assert.Equal(t, "s-1", again.ID)

	require.NoError(t, store.Delete(ctx, "session_1"))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_CleanupDropsExpired(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close() //nolint:errcheck
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Set(ctx, "old", &Session{ID: "a", TTL: time.Hour, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, store.Set(ctx, "new", &Session{ID: "b", TTL: time.Hour, CreatedAt: now}))

	store.cleanup(now)

	assert.Equal(t, 1, store.Len())
	got, _ := store.Get(ctx, "new")
	assert.NotNil(t, got)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
