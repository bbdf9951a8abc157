package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Observable is implemented by caches that count lookups
type Observable interface {
	Stats() Stats
}

// Prunable is implemented by caches with persistent entries
type Prunable interface {
	Prune() (int, error)
}

const keyPrefix = "epistemia"

// Key derives a namespaced cache key from its parts. Parts are hashed so
// arbitrary text is safe to use as a file name.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + ":" + namespace + ":v1:" + hex.EncodeToString(hash[:])
}

// New builds a memory cache, or a memory cache over disk when dir is set
func New(dir string, ttl time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(ttl, 10*time.Minute)
	}
	return NewLayeredCache(ttl, dir, ttl)
}
