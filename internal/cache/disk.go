package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DiskCache persists entries as one JSON file per key, grouped into a
// subdirectory per key namespace ("epistemia:nli:v1:<hash>" lives in nli/).
// Concurrent writers of the same key are safe; the last rename wins.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

type diskEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a live entry. Expired, corrupt or mismatched files are
// treated as misses.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	entry, ok := readEntry(c.path(key))
	if !ok || entry.Key != key {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(c.path(key))
		return nil, false
	}
	return entry.Data, true
}

// Set stores value. A zero ttl uses the cache default.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(diskEntry{Key: key, Data: value, ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return eris.Wrap(err, "cache: marshal entry")
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrapf(err, "cache: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "entry-*.tmp")
	if err != nil {
		return eris.Wrap(err, "cache: create temp entry")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "cache: write entry")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "cache: close entry")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "cache: commit entry")
	}
	return nil
}

// Delete removes an entry. Missing entries are not an error.
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "cache: delete entry")
	}
	return nil
}

// Clear removes every cached file
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Prune deletes expired and unreadable entries and returns how many were removed
func (c *DiskCache) Prune() (int, error) {
	removed := 0
	now := time.Now()

	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if entry, ok := readEntry(path); ok && now.Before(entry.ExpiresAt) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, eris.Wrap(err, "cache: prune")
	}
	return removed, nil
}

func readEntry(path string) (diskEntry, bool) {
	var entry diskEntry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false
	}
	return entry, true
}

// path maps "epistemia:<namespace>:<version>:<hash>" to <dir>/<namespace>/<version>_<hash>.json.
// Keys not built by Key land in default/.
func (c *DiskCache) path(key string) string {
	namespace := "default"
	name := key
	if parts := strings.SplitN(key, ":", 3); len(parts) == 3 && parts[0] == keyPrefix {
		namespace, name = parts[1], parts[2]
	}
	return filepath.Join(c.dir, sanitize(namespace), sanitize(name)+".json")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
