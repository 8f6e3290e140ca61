package layout

import (
	"sync"

	"callconv/internal/types"
)

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

// cache is shared by every goroutine lowering against one engine.
type cache struct {
	mu     sync.Mutex
	byType map[types.TypeID]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]cacheEntry, 256)}
}

func (c *cache) get(id types.TypeID) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byType[id]
	return e, ok
}

func (c *cache) put(id types.TypeID, e cacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byType[id] = e
	c.mu.Unlock()
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byType)
}
