// Package cache provides bounded result caches with insertion-order
// eviction.
//
// Eviction removes the oldest-inserted entry, not the least recently used
// one: a hit does not refresh an entry's position. This keeps eviction O(1)
// and predictable for the small capacities the engine uses.
package cache

import "sync"

// Cache is a generic thread-safe cache with a hard capacity.
// When an insert would exceed capacity, the oldest-inserted entry is
// evicted first.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]V
	order    []K
	capacity int
}

// New creates a cache with the given capacity.
// A capacity of 0 or less means unlimited.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:  make(map[K]V),
		capacity: capacity,
	}
}

// Get retrieves a value from the cache.
// Returns (value, true) if found, (zero, false) otherwise.
// Lookups are pure reads: they do not affect eviction order.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value. Re-setting an existing key replaces the value but
// keeps the key's original insertion position.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	for c.capacity > 0 && len(c.entries) > c.capacity {
		c.evictOldestLocked()
	}
}

// Delete removes a key from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V)
	c.order = c.order[:0]
}

// evictOldestLocked removes the oldest-inserted entry.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldestLocked() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

// deleteLocked removes a key and its order slot. Caller must hold c.mu.
func (c *Cache[K, V]) deleteLocked(key K) {
	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
