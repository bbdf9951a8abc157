package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("nli", "gpt-4o-mini", "premise", "hypothesis")
	b := Key("nli", "gpt-4o-mini", "premise", "hypothesis")
	c := Key("nli", "gpt-4o-mini", "premisehyp", "othesis")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "parts are separated before hashing")
	assert.True(t, strings.HasPrefix(a, "epistemia:nli:v1:"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("entailment")
	require.NoError(t, c.Set("k", value, 0))
	value[0] = 'E'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "entailment", string(got), "stored value is a copy")

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Entries: 0}, c.Stats())

	require.NoError(t, c.Clear())
	assert.Equal(t, Stats{}, c.Stats())
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("nli", "x")

	require.NoError(t, c.Set(key, []byte("v"), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "nli"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))
	assert.NotContains(t, entries[0].Name(), ":")

	require.NoError(t, c.Set(key, []byte("stale"), -time.Second))
	_, ok = c.Get(key)
	assert.False(t, ok)

	assert.NoError(t, c.Delete(key), "deleting a missing entry")
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	n, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, c.Set(Key("nli", "live"), []byte("v"), 0))
	require.NoError(t, c.Set(Key("nli", "stale"), []byte("v"), -time.Second))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nli", "corrupt.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nli", "notes.txt"), []byte("keep"), 0644))

	n, err = c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := c.Get(Key("nli", "live"))
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, "nli", "notes.txt"))
}

func TestDiskCache_ConcurrentSet(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("nli", "shared")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- c.Set(key, []byte(fmt.Sprintf("v%d", i)), 0)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(got), "v"))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	require.NoError(t, disk.Set("k", []byte("from-disk"), 0))

	c := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "from-disk", string(got))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses, "first lookup misses memory")
	assert.Equal(t, 1, stats.Entries, "disk hit promoted")

	n, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, c.Clear())
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	assert.IsType(t, &MemoryCache{}, New("", time.Minute))
	assert.IsType(t, &LayeredCache{}, New(t.TempDir(), time.Minute))
}
