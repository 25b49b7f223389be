package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/spacekeeper/internal/common"
)

// MemStore is an in-memory BlobStore used in tests and local development.
// It is safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (m *MemStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemStore) Put(ctx context.Context, key string, b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(b))
	copy(stored, b)
	m.blobs[key] = stored
	return nil
}

func (m *MemStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemStore) List(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for key := range m.blobs {
		if matchKey(pattern, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len reports the number of stored blobs.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
