// Package passwords caches space passwords for the lifetime of a session so
// the user is not re-prompted on every save of a locked space. The cache is
// strictly process-local and never persisted.
package passwords

import "sync"

// Cache is a per-space password store. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	bySpace map[string]string
}

func NewCache() *Cache {
	return &Cache{bySpace: make(map[string]string)}
}

func (c *Cache) Get(spaceID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pw, ok := c.bySpace[spaceID]
	return pw, ok
}

func (c *Cache) Set(spaceID, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bySpace[spaceID] = password
}

// Clear forgets the password for spaceID. It must be called when decryption
// with the stored password fails and when encryption is turned off.
func (c *Cache) Clear(spaceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bySpace, spaceID)
}
