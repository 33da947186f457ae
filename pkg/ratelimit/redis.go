package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter is a fixed-window counter shared by every instance that uses
// the same Redis.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("failed to count request for %s: %w", key, err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return true, fmt.Errorf("failed to set expiry on %s: %w", k, err)
		}
	}
	return n <= l.max, nil
}
