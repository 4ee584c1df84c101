package ports

import (
	"context"
	"time"
)

// Key-value store with per-key expiry used for cache-aside lookups.
type RateCache interface {
	// Return the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
