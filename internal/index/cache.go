package index

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	cacheNumCounters = 1e5
	cacheBufferItems = 64

	// DefaultCacheMaxEntries bounds the total number of index entries held
	// across every cached index file.
	DefaultCacheMaxEntries = 1 << 20
)

type cachedIndex struct {
	size    int64
	modTime time.Time
	entries []Entry
}

// Cache keeps parsed index files in memory so repeated lookups skip
// re-reading them. An entry is only served while the file's size and
// modification time still match; Invalidate must be called after a rebuild.
// Data records are never cached.
//
// A nil *Cache is valid and behaves like plain Load.
type Cache struct {
	c *ristretto.Cache[string, cachedIndex]
}

func NewCache(maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, cachedIndex]{
		NumCounters: cacheNumCounters,
		MaxCost:     maxEntries,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("index: failed to initialize cache: %w", err)
	}

	return &Cache{c: c}, nil
}

// Load returns the entries of the index at path, from memory when the cached
// copy is still current.
func (c *Cache) Load(path string) ([]Entry, error) {
	if c == nil {
		return Load(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.c.Del(path)
			return nil, nil
		}
		return nil, err
	}

	if cached, ok := c.c.Get(path); ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		return cached.entries, nil
	}

	entries, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.c.Set(path, cachedIndex{size: info.Size(), modTime: info.ModTime(), entries: entries}, int64(len(entries))+1)
	c.c.Wait()

	return entries, nil
}

// Invalidate drops any cached copy of the index at path.
func (c *Cache) Invalidate(path string) {
	if c == nil {
		return
	}
	c.c.Del(path)
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.c.Close()
}
