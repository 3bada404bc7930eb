package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Limiter shared across server instances: one counter key
// per identity, INCR on failure, EXPIRE starting the window on the first hit.
// Redis owns the window, so all instances observe the same counter.
type RedisLimiter struct {
	client      *redis.Client
	maxAttempts int
}

// NewRedisLimiter creates a RedisLimiter permitting maxAttempts failures per
// window.
func NewRedisLimiter(client *redis.Client, maxAttempts int) *RedisLimiter {
	return &RedisLimiter{client: client, maxAttempts: maxAttempts}
}

func (l *RedisLimiter) key(key string) string {
	return "ratelimit:" + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return count < int64(l.maxAttempts), nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, key string, window time.Duration) error {
	count, err := l.client.Incr(ctx, l.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, l.key(key), window).Err(); err != nil {
			return fmt.Errorf("redis error: %w", err)
		}
	}
	return nil
}

func (l *RedisLimiter) Clear(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (l *RedisLimiter) TimeUntilAllowed(ctx context.Context, key string) (time.Duration, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	if count < int64(l.maxAttempts) {
		return 0, nil
	}
	ttl, err := l.client.TTL(ctx, l.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
