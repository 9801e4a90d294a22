package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps decisions for the lifetime of the process
type MemoryCache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates a memory layer whose janitor runs every sweep
func NewMemoryCache(ttl, sweep time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, sweep), ttl: ttl}
}

// Get returns a live value
func (m *MemoryCache) Get(key string) ([]byte, bool) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores a value. A zero ttl uses the layer default.
func (m *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, value, ttl)
	return nil
}

// Delete removes a value
func (m *MemoryCache) Delete(key string) error {
	m.items.Delete(key)
	return nil
}

// Clear drops every entry
func (m *MemoryCache) Clear() error {
	m.items.Flush()
	return nil
}

// Prune evicts expired entries and reports how many went
func (m *MemoryCache) Prune() (int, error) {
	before := m.items.ItemCount()
	m.items.DeleteExpired()
	return before - m.items.ItemCount(), nil
}

// Len reports the number of entries held, expired or not
func (m *MemoryCache) Len() int {
	return m.items.ItemCount()
}

func (m *MemoryCache) defaultTTL() time.Duration {
	return m.ttl
}
