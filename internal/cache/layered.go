package cache

import (
	"errors"
	"time"
)

// memorySweep is how often the memory layer evicts expired decisions
const memorySweep = 10 * time.Minute

// LayeredCache fronts the on-disk decision store with process memory.
// Disk hits are promoted for no longer than they have left to live.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a memory layer over a disk cache in diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, memorySweep),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks memory first, then disk, promoting disk hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}

	entry, ok := c.disk.lookup(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(key, entry.Data, c.promotionTTL(entry.ExpiresAt))
	return entry.Data, true
}

func (c *LayeredCache) promotionTTL(expiresAt time.Time) time.Duration {
	left := expiresAt.Sub(c.disk.now())
	def := c.memory.defaultTTL()
	if def > 0 && def < left {
		return def
	}
	return left
}

// Set writes through both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.disk.Set(key, value, ttl); err != nil {
		return err
	}
	return c.memory.Set(key, value, ttl)
}

// Delete removes the key from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// Prune reports the number of expired decisions removed from disk
func (c *LayeredCache) Prune() (int, error) {
	_, memErr := c.memory.Prune()
	n, diskErr := c.disk.Prune()
	return n, errors.Join(memErr, diskErr)
}
