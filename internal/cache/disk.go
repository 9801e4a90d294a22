package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache persists decisions between runs, one JSON file per key,
// sharded by the first byte of the key digest.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache rooted at dir with a default ttl
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}
}

type diskEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns a live value
func (c *DiskCache) Get(key string) ([]byte, bool) {
	entry, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	return entry.Data, true
}

// lookup reads a live entry. Expired or unreadable files are removed.
func (c *DiskCache) lookup(key string) (diskEntry, bool) {
	path := c.path(key)
	entry, err := readEntry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			_ = os.Remove(path)
		}
		return diskEntry{}, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		_ = os.Remove(path)
		return diskEntry{}, false
	}
	return entry, true
}

// Set stores a value. A zero ttl uses the cache default.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(diskEntry{Data: value, ExpiresAt: c.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	dir := filepath.Join(c.dir, shard(key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache shard: %w", err)
	}

	// Readers must never observe a half-written decision.
	tmp, err := os.CreateTemp(dir, "decision-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp decision file: %w", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write decision file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish decision file: %w", err)
	}
	return nil
}

// Delete removes a value. Missing keys are not an error.
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every decision file and leftover temp file under the cache
// directory. Anything else in the directory is left alone.
func (c *DiskCache) Clear() error {
	_, err := c.sweep(func(string) bool { return true })
	return err
}

// Prune removes expired and unreadable decision files
func (c *DiskCache) Prune() (int, error) {
	now := c.now()
	return c.sweep(func(path string) bool {
		entry, err := readEntry(path)
		return err != nil || !now.Before(entry.ExpiresAt)
	})
}

// sweep deletes cache files for which drop returns true. Temp files are
// always dropped and do not count toward the total.
func (c *DiskCache) sweep(drop func(path string) bool) (int, error) {
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".tmp"):
			return ignoreMissing(os.Remove(path))
		case strings.HasSuffix(path, fileExt) && drop(path):
			if err := ignoreMissing(os.Remove(path)); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweep cache dir %s: %w", c.dir, err)
	}
	return removed, nil
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, shard(key), fileName(key))
}

func readEntry(path string) (diskEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return diskEntry{}, err
	}
	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return diskEntry{}, err
	}
	return entry, nil
}

func ignoreMissing(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
