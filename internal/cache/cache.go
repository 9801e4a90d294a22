// Package cache stores oracle decisions so that identical ambiguous groups
// are not sent to the oracle twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Cache holds serialized oracle decisions keyed by DecisionKey
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	// Prune drops expired entries and reports how many were removed
	Prune() (int, error)
}

const keyPrefix = "rollcall:v1:"

// DecisionKey derives the key for an ambiguous group. Candidate order does
// not matter.
func DecisionKey(normalizedName string, profileURLs []string) string {
	urls := append([]string(nil), profileURLs...)
	sort.Strings(urls)

	h := sha256.New()
	h.Write([]byte(normalizedName))
	for _, u := range urls {
		h.Write([]byte{0})
		h.Write([]byte(u))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// shard is the two-character directory a key lives under
func shard(key string) string {
	digest := strings.TrimPrefix(key, keyPrefix)
	if len(digest) < 2 {
		return "00"
	}
	return digest[:2]
}

func fileName(key string) string {
	return strings.ReplaceAll(key, ":", "_") + fileExt
}

const fileExt = ".cache"
