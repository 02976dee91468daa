package cache

import (
	"sync"
	"time"
)

// ttlEntry pairs a value with its insertion time.
type ttlEntry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTLCache is a Cache whose entries additionally expire a fixed duration
// after insertion, regardless of capacity pressure. Expired entries are
// treated as absent and removed lazily on Get.
//
// TTLCache is safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]ttlEntry[V]
	order    []K
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewTTL creates a TTL cache with the given capacity and entry lifetime.
// A capacity of 0 or less means unlimited. now may be nil (wall clock).
func NewTTL[K comparable, V any](capacity int, ttl time.Duration, now func() time.Time) *TTLCache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &TTLCache[K, V]{
		entries:  make(map[K]ttlEntry[V]),
		capacity: capacity,
		ttl:      ttl,
		now:      now,
	}
}

// Get retrieves a value. Entries older than the TTL are deleted and
// reported as absent.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.insertedAt) > c.ttl {
		c.deleteLocked(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the current time as its insertion time.
// Re-setting an existing key refreshes its TTL but keeps its insertion
// position for capacity eviction.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = ttlEntry[V]{value: value, insertedAt: c.now()}

	for c.capacity > 0 && len(c.entries) > c.capacity {
		if len(c.order) == 0 {
			break
		}
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of entries, including any not yet expired-checked.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]ttlEntry[V])
	c.order = c.order[:0]
}

// deleteLocked removes a key and its order slot. Caller must hold c.mu.
func (c *TTLCache[K, V]) deleteLocked(key K) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
