package cache

import (
	"sync"
	"time"
)

type Entry[T any] struct {
	Value     T
	ExpiresAt time.Time
}

// IsExpired reports whether the entry is stale at now. A zero ExpiresAt
// never expires.
func (e Entry[T]) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}

// Cache is a keyed TTL cache safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache whose entries live for ttl. A ttl of 0 keeps entries
// until they are deleted.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || entry.IsExpired(c.now()) {
		var zero T
		return zero, false
	}
	return entry.Value, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = Entry[T]{
		Value:     value,
		ExpiresAt: expiresAt,
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result. Errors from load are returned and not cached.
// Concurrent misses may each call load.
func (c *Cache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, value)
	return value, nil
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry[T])
}
