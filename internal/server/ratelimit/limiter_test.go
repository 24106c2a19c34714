package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiterForTest(t *testing.T, limit int, window time.Duration) (*miniredis.Miniredis, *RedisFixedWindowLimiter) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		m.Close()
	})
	return m, NewRedisFixedWindowLimiter(client, "rl_test", limit, window)
}

func TestRedisFixedWindowLimiter_AllowThenDeny(t *testing.T) {
	_, limiter := newRedisLimiterForTest(t, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "login:alice@test.com")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := limiter.Allow(ctx, "login:alice@test.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "login:bob@test.com")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestRedisFixedWindowLimiter_WindowExpires(t *testing.T) {
	m, limiter := newRedisLimiterForTest(t, 1, time.Minute)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, time.Minute, m.TTL("rl_test:k"))

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	m.FastForward(61 * time.Second)

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisFixedWindowLimiter_Reset(t *testing.T) {
	m, limiter := newRedisLimiterForTest(t, 1, time.Minute)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "k"))
	assert.False(t, m.Exists("rl_test:k"))

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.Reset(ctx, "never-seen"))
}

func TestRedisFixedWindowLimiter_Errors(t *testing.T) {
	limiter := NewRedisFixedWindowLimiter(nil, "", 1, time.Second)
	_, err := limiter.Allow(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, limiter.Reset(context.Background(), "k"))

	badClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 20 * time.Millisecond, ReadTimeout: 20 * time.Millisecond, WriteTimeout: 20 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = badClient.Close() })
	limiter = NewRedisFixedWindowLimiter(badClient, "", 1, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = limiter.Allow(ctx, "k")
	require.Error(t, err)
	require.Error(t, limiter.Reset(ctx, "k"))
}

func TestNoop(t *testing.T) {
	var l Limiter = Noop{}
	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, l.Reset(context.Background(), "k"))
}

func TestClientFromContext(t *testing.T) {
	assert.Empty(t, ClientFromContext(context.Background()))
	assert.Equal(t, "10.0.0.7", ClientFromContext(WithClient(context.Background(), "10.0.0.7")))
}
