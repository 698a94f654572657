package scene

import "sync"

// Cache is a concurrency-safe path-keyed scene cache. Failed loads are not
// cached so a corrected file can be retried.
type Cache struct {
	mu    sync.RWMutex
	items map[string]Scene
	load  func(string) (Scene, error)
}

// NewCache creates a cache backed by Load.
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]Scene),
		load:  Load,
	}
}

// Get returns the cached scene for path, loading it on first use.
func (c *Cache) Get(path string) (Scene, error) {
	// Fast path: read lock
	c.mu.RLock()
	if s, ok := c.items[path]; ok {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	s, err := c.load(path)
	if err != nil {
		return nil, err
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[path]; ok {
		return existing, nil
	}
	c.items[path] = s
	return s, nil
}

// Len returns the number of cached scenes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
