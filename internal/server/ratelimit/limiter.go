// Package ratelimit counts attempts per key in fixed time windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The window starts with the first attempt and is not extended by later ones.
var fixedWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Limiter decides whether one more attempt for key is allowed. Reset forgets
// the attempts counted so far, after an attempt that succeeded.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Noop allows everything. It is used when no Redis is configured.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }
func (Noop) Reset(context.Context, string) error         { return nil }

type clientKey struct{}

// WithClient stores the caller address used to scope attempt keys.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the address stored by WithClient, if any.
func ClientFromContext(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(string)
	return c
}

// RedisFixedWindowLimiter allows at most Limit attempts per key within each
// Window, counting with INCR on a key that expires with the window.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisFixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.client == nil {
		return false, errors.New("redis client is nil")
	}
	n, err := fixedWindowScript.Run(ctx, l.client, []string{l.storeKey(key)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}

	return n <= l.limit, nil
}

func (l *RedisFixedWindowLimiter) Reset(ctx context.Context, key string) error {
	if l.client == nil {
		return errors.New("redis client is nil")
	}
	if err := l.client.Del(ctx, l.storeKey(key)).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

func (l *RedisFixedWindowLimiter) storeKey(key string) string {
	if key == "" {
		key = "unknown"
	}
	return fmt.Sprintf("%s:%s", l.prefix, key)
}
