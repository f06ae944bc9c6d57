// Package cache provides the bounded, time-expiring metadata cache that
// backs directory traversal. One instance is constructed at startup and
// handed to the walker; nothing in docfs holds a process-wide singleton.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/feli0x/docfs/internal/types"
)

// MetadataCache maps an absolute path to its last-known FileEntry with LRU
// capacity eviction and lazy TTL expiry. A single mutex guards the list and
// map; access is dominated by filesystem latency, not lock contention.
type MetadataCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	items    map[string]*list.Element

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time // injectable for tests
}

type cacheEntry struct {
	key       string
	value     types.FileEntry
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// New creates a cache with fixed capacity and TTL. Capacity must be at
// least 1; TTL must be positive.
func New(capacity int, ttl time.Duration) *MetadataCache {
	if capacity < 1 {
		capacity = 1
	}
	return &MetadataCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns the cached entry for path. An entry past its expiry is
// removed and reported as absent; expiry is only ever enforced here, at
// access time. A hit promotes the entry to most recently used.
func (c *MetadataCache) Get(path string) (types.FileEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[path]
	if !ok {
		c.misses++
		return types.FileEntry{}, false
	}

	ent := el.Value.(*cacheEntry)
	if c.now().After(ent.expiresAt) {
		c.removeLocked(el)
		c.evictions++
		c.misses++
		return types.FileEntry{}, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return ent.value, true
}

// Set stores an entry, refreshing its expiry and recency. Growing past
// capacity evicts exactly one entry, the least recently used.
func (c *MetadataCache) Set(path string, entry types.FileEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.items[path]; ok {
		ent := el.Value.(*cacheEntry)
		ent.value = entry
		ent.expiresAt = expires
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: path, value: entry, expiresAt: expires})
	c.items[path] = el

	if c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
			c.evictions++
		}
	}
}

// Clear drops every entry and resets the counters.
func (c *MetadataCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Len returns the current entry count.
func (c *MetadataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters.
func (c *MetadataCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.order.Len(),
	}
}

func (c *MetadataCache) removeLocked(el *list.Element) {
	ent := el.Value.(*cacheEntry)
	c.order.Remove(el)
	delete(c.items, ent.key)
}
