package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyNormalizes(t *testing.T) {
	assert.Equal(t, "a@x.com", Key("  A@X.com "))
}

func TestMemoryLimiterWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	allowed, _, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, l.Fail(ctx, "k"))
	allowed, _, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)

	require.NoError(t, l.Fail(ctx, "k"))
	allowed, retry, _ := l.Allow(ctx, "k")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retry)

	allowed, _, _ = l.Allow(ctx, "other")
	assert.True(t, allowed)

	now = now.Add(time.Minute + time.Second)
	allowed, _, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)
}

func TestMemoryLimiterReset(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(1, time.Minute)

	require.NoError(t, l.Fail(ctx, "k"))
	allowed, _, _ := l.Allow(ctx, "k")
	require.False(t, allowed)

	require.NoError(t, l.Reset(ctx, "k"))
	allowed, _, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)
}

func TestMemoryLimiterDisabled(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(0, time.Minute)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Fail(ctx, "k"))
	}
	allowed, _, _ := l.Allow(ctx, "k")
	assert.True(t, allowed)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	key := uuid.NewString()
	l := NewRedisLimiter(client, 2, time.Minute)
	defer l.Reset(ctx, key) //nolint:errcheck

	require.NoError(t, l.Fail(ctx, key))
	allowed, _, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, l.Fail(ctx, key))
	allowed, retry, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))

	require.NoError(t, l.Reset(ctx, key))
	allowed, _, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
}
