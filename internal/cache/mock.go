package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process fallback used when Redis is not
// configured and in tests.
type MemoryCache struct {
	mu     sync.Mutex
	data   map[string]struct{}
	prefix string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data:   make(map[string]struct{}),
		prefix: "pressgen:",
	}
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) IsProcessed(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.data[m.prefix+hash]
	return exists, nil
}

func (m *MemoryCache) MarkProcessed(_ context.Context, hash string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.prefix+hash] = struct{}{}
	return nil
}

func (m *MemoryCache) ClearProcessed(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]struct{})
	return nil
}
