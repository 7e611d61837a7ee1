package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// CacheStats is a point-in-time view of a MemoryCache.
type CacheStats struct {
	Size        int           `json:"size"`
	MaxSize     int           `json:"maxSize"`
	Utilization float64       `json:"utilization"`
	TTL         time.Duration `json:"ttl"`
}

// MemoryCache is a thread-safe LRU cache with per-entry TTL.
// The front of the list is the least recently used entry.
type MemoryCache[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

// Option configures a MemoryCache.
type Option[V any] func(*MemoryCache[V])

// WithClock replaces time.Now, for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *MemoryCache[V]) {
		c.now = now
	}
}

// NewMemoryCache creates a cache holding at most maxSize entries, each
// valid for ttl after it was last set. A negative maxSize is treated as 0.
func NewMemoryCache[V any](maxSize int, ttl time.Duration, opts ...Option[V]) *MemoryCache[V] {
	if maxSize < 0 {
		maxSize = 0
	}
	c := &MemoryCache[V]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and marks it most recently used. Expired
// entries are removed and reported as a miss.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[V])
	if c.expired(e, c.now()) {
		c.removeElement(elem)
		return zero, false
	}

	c.order.MoveToBack(elem)
	return e.value, true
}

// Set stores value under key, refreshing both its recency and its TTL.
// When the cache is full the least recently used entry is evicted first.
func (c *MemoryCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize == 0 {
		return
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, insertedAt: c.now()})
}

// Has reports whether key is present and unexpired. It does not change recency.
func (c *MemoryCache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	if c.expired(elem.Value.(*entry[V]), c.now()) {
		c.removeElement(elem)
		return false
	}
	return true
}

// Delete removes key, reporting whether it was present.
func (c *MemoryCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear removes every entry.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Size returns the number of entries, including expired ones not yet swept.
func (c *MemoryCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cleanup removes all expired entries and returns how many were removed.
func (c *MemoryCache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if c.expired(elem.Value.(*entry[V]), now) {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Stats returns the current size, capacity and utilization.
func (c *MemoryCache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		TTL:     c.ttl,
	}
	if c.maxSize > 0 {
		stats.Utilization = float64(stats.Size) / float64(c.maxSize)
	}
	return stats
}

// Must be called with lock held.
func (c *MemoryCache[V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}

// Must be called with lock held.
func (c *MemoryCache[V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[V]).key)
}
