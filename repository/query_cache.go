package repository

import "sync"

// QueryCache maps a normalized query to a previously obtained answer.
// When capacity is reached the oldest inserted entry is evicted;
// a capacity of 0 keeps every entry for the process lifetime.
type QueryCache struct {
	mu       sync.RWMutex
	entries  map[string]string
	order    []string
	capacity int
}

// NewQueryCache creates a cache holding at most capacity entries
func NewQueryCache(capacity int) *QueryCache {
	return &QueryCache{
		entries:  make(map[string]string),
		capacity: capacity,
	}
}

// Get returns the cached answer for key
func (c *QueryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores an answer for key
func (c *QueryCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	if c.capacity > 0 && len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

// Clear drops every cached answer
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	c.order = nil
}

// Len returns the number of cached answers
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
