package poster

import "sync"

// Cache memoizes poster lookups for the lifetime of the process. Negative
// results are cached too, so a title the providers do not know is only
// queried once per run.
type Cache struct {
	mu      sync.Mutex
	posters map[string]string
}

func NewCache() *Cache {
	return &Cache{
		posters: make(map[string]string),
	}
}

// Get returns the cached poster URL and whether the key was present. An
// empty URL with ok=true is a cached negative result.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.posters[key]
	return url, ok
}

func (c *Cache) Set(key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posters[key] = url
}

// Len returns the number of cached lookups, negatives included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.posters)
}
