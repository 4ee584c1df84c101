package cache

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateCache is a Redis-backed key-value cache with per-key expiry.
// GET and SET EX are atomic single-key operations, so no extra locking is needed.
type RedisRateCache struct {
	Client *redis.Client
}

var _ ports.RateCache = (*RedisRateCache)(nil)

func NewRedisRateCache(client *redis.Client) *RedisRateCache {
	return &RedisRateCache{Client: client}
}

func (c *RedisRateCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.Client == nil {
		return "", false, errors.New("rate cache: client is nil")
	}

	v, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rate cache: get %q: %w", key, err)
	}
	return v, true, nil
}

func (c *RedisRateCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if c.Client == nil {
		return errors.New("rate cache: client is nil")
	}

	if err := c.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("rate cache: set %q: %w", key, err)
	}
	return nil
}
