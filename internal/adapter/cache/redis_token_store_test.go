package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lc-2025/freenotes/internal/adapter/cache"
	"github.com/lc-2025/freenotes/internal/repository"
)

func newStore(t *testing.T) (*cache.RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisTokenStore(client), srv
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	require.NoError(t, store.Set(ctx, "token-a", "42", time.Hour))

	userID, err := store.Get(ctx, "token-a")
	require.NoError(t, err)
	require.Equal(t, "42", userID)
}

func TestGetMissingToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Get(ctx, "never-stored")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEntryExpires(t *testing.T) {
	ctx := context.Background()
	store, srv := newStore(t)

	require.NoError(t, store.Set(ctx, "token-a", "42", time.Minute))
	srv.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "token-a")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeRemovesEntry(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	require.NoError(t, store.Set(ctx, "token-a", "42", time.Hour))

	userID, err := store.Consume(ctx, "token-a")
	require.NoError(t, err)
	require.Equal(t, "42", userID)

	// The entry is gone in the same operation; a second consumer of the
	// identical token value cannot also win.
	_, err = store.Consume(ctx, "token-a")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Get(ctx, "token-a")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	require.NoError(t, store.Set(ctx, "token-a", "42", time.Hour))
	require.NoError(t, store.Set(ctx, "token-a", "7", time.Hour))

	userID, err := store.Get(ctx, "token-a")
	require.NoError(t, err)
	require.Equal(t, "7", userID)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	require.NoError(t, store.Set(ctx, "token-a", "42", time.Hour))
	require.NoError(t, store.Delete(ctx, "token-a"))
	require.NoError(t, store.Delete(ctx, "token-a"))

	_, err := store.Get(ctx, "token-a")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
