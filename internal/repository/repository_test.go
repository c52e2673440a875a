package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisEngagementStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisEngagementStore(client, time.Hour), mr
}

func TestRedisEngagementStore(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-1"))
	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-2"))
	// Repeat views do not inflate the count.
	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-1"))

	count, err := store.ViewCount(ctx, "rfq-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = store.ViewCount(ctx, "rfq-other")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRedisRateLimit(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := store.CheckRateLimit(ctx, "user-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := store.CheckRateLimit(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// The window expiring resets the counter.
	mr.FastForward(2 * time.Minute)
	allowed, err = store.CheckRateLimit(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryEngagementStore(t *testing.T) {
	store := NewMemoryEngagementStore()
	ctx := context.Background()

	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-1"))
	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-1"))
	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-2"))

	count, err := store.ViewCount(ctx, "rfq-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	allowed, err := store.CheckRateLimit(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = store.CheckRateLimit(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverDegradesToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	primary := NewRedisEngagementStore(client, time.Hour)
	fallback := NewMemoryEngagementStore()
	store := NewFailoverEngagementStore(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-1"))
	count, err := store.ViewCount(ctx, "rfq-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Kill redis; the store keeps answering from memory.
	mr.Close()

	require.NoError(t, store.TrackView(ctx, "rfq-1", "ws-2"))
	count, err = store.ViewCount(ctx, "rfq-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	allowed, err := store.CheckRateLimit(ctx, "user-1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
