package ingest

import (
	"sync"

	"github.com/ansonwcy/ccusage-overlay/internal/domain"
)

// Cache maps each known source file to its parsed event list. It is the sole
// owner of the per-file lists; aggregation works on flattened copies.
type Cache struct {
	mu    sync.RWMutex
	files map[string][]domain.UsageEvent
}

func NewCache() *Cache {
	return &Cache{files: make(map[string][]domain.UsageEvent)}
}

// Put replaces the entry for path. A re-parse yielding zero events removes
// the entry so stale data never lingers after a file is truncated.
func (c *Cache) Put(path string, events []domain.UsageEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(events) == 0 {
		delete(c.files, path)
		return
	}
	c.files[path] = events
}

// Remove drops the entry for a deleted file.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

// Flatten returns a copy of all cached events across files.
func (c *Cache) Flatten() []domain.UsageEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, evs := range c.files {
		n += len(evs)
	}
	all := make([]domain.UsageEvent, 0, n)
	for _, evs := range c.files {
		all = append(all, evs...)
	}
	return all
}

// FileCount returns the number of files with at least one event.
func (c *Cache) FileCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// EventCount returns the total number of cached events.
func (c *Cache) EventCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, evs := range c.files {
		n += len(evs)
	}
	return n
}
