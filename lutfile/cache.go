package lutfile

import (
	"fmt"
	"path/filepath"
	"sync"

	"lutgrade/lut3d"
)

type cacheKey struct {
	path  string
	order lut3d.Order
}

// Cache memoises parsed tables by absolute path and triple order. Entries
// are never refreshed on their own: a file changed on disk keeps its cached
// table until Evict is called.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*lut3d.Table
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*lut3d.Table)}
}

// Load returns the table stored in path, with triples read as the given
// order and values clamped to [0,1]. The returned table is shared between
// callers and must not be modified.
func (c *Cache) Load(path string, order lut3d.Order) (*lut3d.Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid LUT path %q: %w", path, err)
	}
	key := cacheKey{abs, order}

	c.mu.RLock()
	t, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	rec, err := Parse(abs)
	if err != nil {
		return nil, err
	}
	t = rec.Table.Clone()
	if order == lut3d.BGR {
		t.SwapRB()
	}
	t.Clamp()

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[key]; ok {
		return prev, nil
	}
	c.entries[key] = t
	return t, nil
}

// Evict drops every cached order of path.
func (c *Cache) Evict(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{abs, lut3d.RGB})
	delete(c.entries, cacheKey{abs, lut3d.BGR})
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
