package cache

import (
	"context"
	"time"
)

// Cache is a byte-value cache with per-key TTL. Used to memoise diagnose
// results keyed by content hash; misses return the adapter's not-found
// error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}
