package selfdeadlock

import "sync"

type Cache struct {
	mu    sync.Mutex
	items map[string]string
}

func (c *Cache) lookup(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key]
}

// Get calls lookup while still holding the lock lookup wants.
func (c *Cache) Get(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v
	}
	return c.lookup(key) // want `potential self deadlock: Get reacquires Cache\.mu while already holding it`
}

type Counter struct {
	mu sync.Mutex
	n  int
}

func (c *Counter) Bump() {
	c.mu.Lock()
	c.n++
	c.mu.Lock() // want `potential self deadlock: Bump reacquires Counter\.mu while already holding it`
	c.n++
	c.mu.Unlock()
	c.mu.Unlock()
}

// Reset relocks only after releasing, which is fine.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.n = 0
	c.mu.Unlock()
	c.mu.Lock()
	c.n = 0
	c.mu.Unlock()
}
