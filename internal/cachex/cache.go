// Package cachex provides a small process-local TTL cache used to avoid
// refetching expensive remote listings. Eviction is lazy: an expired entry
// is reclaimed the next time it is read, never by a background sweep.
package cachex

import (
	"sync"
	"time"
)

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// Cache is a TTL map safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	now     func() time.Time
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if it has not expired. An expired
// entry is deleted on the way out.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Before(e.expiresAt) {
		return e.data, true
	}

	delete(c.entries, key)
	var zero T
	return zero, false
}

// Set stores value under key for ttl, unconditionally replacing any
// existing entry.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{data: value, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes key unconditionally. Removing a missing key is a no-op.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
