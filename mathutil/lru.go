package mathutil

import (
	"container/list"
	"sync"
)

// Cache is a generic LRU cache safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	ll       *list.List
	items    map[K]*list.Element
	mu       sync.Mutex // Get reorders the list, so reads take the full lock too.
	hits     int64
	misses   int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewCache creates a new LRU cache, capacity must be greater than 0.
func NewCache[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		panic("lru: capacity must be greater than 0")
	}
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get returns the cached value for key and marks it as most recently used.
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return value, false
	}

	c.ll.MoveToFront(el)
	c.hits++
	return el.Value.(*entry[K, V]).value, true
}

// Put stores value under key, evicting the least recently used entry when full.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	if c.ll.Len() > c.capacity {
		c.removeOldest()
	}
}

// GetOrPut returns the cached value for key, computing and storing it with fn on a miss.
// fn runs without the lock, so concurrent misses on one key may each call it; the first
// stored value wins.
func (c *Cache[K, V]) GetOrPut(key K, fn func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, nil
	}
	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	if c.ll.Len() > c.capacity {
		c.removeOldest()
	}
	return value, nil
}

// Remove drops key from the cache.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

func (c *Cache[K, V]) removeOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}

	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}

// Len returns the number of elements in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Capacity returns the capacity of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Clear empties the cache and resets its counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	clear(c.items)
	c.hits = 0
	c.misses = 0
}

type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
	Capacity int     `json:"capacity"`
	Size     int     `json:"size"`
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache[K, V]) GetStats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Capacity: c.capacity,
		Size:     c.ll.Len(),
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
