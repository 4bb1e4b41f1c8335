package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("cache: not found")

// Diagnose entries are keyed by content hash, so the key space is unbounded.
// The cap keeps a long-running process from accumulating stale results.
const maxEntries = 1024

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-process TTL cache implementing port/cache.Cache. Expired
// entries are evicted lazily on read; Set sweeps them once the cap is hit.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.value, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxEntries {
		c.sweep(now)
	}
	c.entries[key] = entry{
		value:     value,
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (c *Cache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// sweep drops expired entries; if everything is still live it drops the
// soonest-to-expire entries until under the cap. Caller holds the write lock.
func (c *Cache) sweep(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	for len(c.entries) >= maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey = k
				oldest = e.expiresAt
			}
		}
		delete(c.entries, oldestKey)
	}
}
