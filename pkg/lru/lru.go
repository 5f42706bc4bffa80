// Package lru provides a small thread-safe, size-bounded LRU cache used for
// rendered glyph layers and encoded terminal frames.
package lru

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Stats reports hit/miss counts for observability.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	SizeBytes int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// Cache is an LRU keyed by K. Entry cost is measured by the size function
// passed to New; the cache evicts from the back until the total cost fits
// within maxBytes.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	items     map[K]*list.Element
	order     *list.List // front = most recent, back = least recent
	sizeOf    func(V) int64
	maxBytes  int64
	usedBytes int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache bounded to maxBytes total cost. A nil sizeOf counts
// every entry as 1, turning maxBytes into an entry count.
func New[K comparable, V any](maxBytes int64, sizeOf func(V) int64) *Cache[K, V] {
	if maxBytes <= 0 {
		maxBytes = 1
	}
	if sizeOf == nil {
		sizeOf = func(V) int64 { return 1 }
	}
	return &Cache[K, V]{
		items:    make(map[K]*list.Element),
		order:    list.New(),
		sizeOf:   sizeOf,
		maxBytes: maxBytes,
	}
}

// Get returns the cached value and true on a hit, promoting the entry.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*entry[K, V]).value, true
}

// Put stores value under key, evicting least recently used entries until
// the cache is within its bound. An entry larger than the bound is still
// stored alone.
func (c *Cache[K, V]) Put(key K, value V) {
	size := c.sizeOf(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		old := elem.Value.(*entry[K, V])
		c.usedBytes += size - old.size
		old.value = value
		old.size = size
		c.order.MoveToFront(elem)
		c.evictLocked(elem)
		return
	}

	for c.usedBytes+size > c.maxBytes && c.order.Len() > 0 {
		c.evictBackLocked()
	}

	elem := c.order.PushFront(&entry[K, V]{key: key, value: value, size: size})
	c.items[key] = elem
	c.usedBytes += size
}

// Invalidate clears all entries. Counters are kept.
func (c *Cache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order.Init()
	c.usedBytes = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns current cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.order.Len(),
		SizeBytes: c.usedBytes,
	}
}

// evictLocked evicts from the back until under maxBytes, never evicting
// keep. Caller must hold c.mu.
func (c *Cache[K, V]) evictLocked(keep *list.Element) {
	for c.usedBytes > c.maxBytes && c.order.Len() > 1 {
		if c.order.Back() == keep {
			return
		}
		c.evictBackLocked()
	}
}

// evictBackLocked removes the least recently used entry. Caller must hold
// c.mu.
func (c *Cache[K, V]) evictBackLocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := c.order.Remove(back).(*entry[K, V])
	delete(c.items, e.key)
	c.usedBytes -= e.size
	c.evictions.Add(1)
}
