// Package refs resolves which documents reference each image, with a
// per-path cache in front of the backlink index.
package refs

import (
	"sync"

	"github.com/Ryanu9/albus-imagine/internal/models"
)

// Entry is one cached resolution result.
type Entry struct {
	References []models.ReferenceInfo
	Count      int
}

// Cache memoizes reference lookups by file path. Entries are written
// whole by a completed lookup, never incrementally.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the cached entry for path.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

// Set stores the entry for path, replacing any previous one.
func (c *Cache) Set(path string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = e
}

// Delete removes the entry for path, if present.
func (c *Cache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// UpdateKey moves the entry at oldPath to newPath without recomputing
// it. Used on rename; a later lookup on oldPath is a miss.
func (c *Cache) UpdateKey(oldPath, newPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[oldPath]
	if !ok {
		return
	}
	delete(c.entries, oldPath)
	c.entries[newPath] = e
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Keys returns the cached paths, in no particular order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
