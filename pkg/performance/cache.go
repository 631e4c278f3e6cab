// Package performance provides the optimization substrate consumed by the
// rest of the pipeline: a bounded TTL cache, lazy initialization, a client
// pool, a memory monitor and a parallel chunk executor. Failures here degrade
// performance, never correctness.
package performance

import (
	"container/list"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// CacheKey derives the cache key from an operation name and its parameters.
func CacheKey(operation string, params ...interface{}) uint64 {
	h := fnv.New64a()
	fmt.Fprint(h, operation)
	for _, p := range params {
		fmt.Fprintf(h, "|%v", p)
	}
	return h.Sum64()
}

// Cache is a bounded LRU cache with per-entry TTL. A hit bypasses the
// underlying computation entirely. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[uint64]*list.Element
	order    *list.List // front = most recent

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key       uint64
	value     interface{}
	expiresAt time.Time
}

// NewCache creates a cache with the given capacity and TTL.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key uint64) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return entry.value, true
}

// Put stores a value, evicting the least-recently-used entry when full.
func (c *Cache) Put(key uint64, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	elem := c.order.PushFront(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem
}

// GetOrCompute returns the cached value or computes and stores it.
func (c *Cache) GetOrCompute(key uint64, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(key, v)
	return v, nil
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
