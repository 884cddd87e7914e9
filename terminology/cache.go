package terminology

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultSearchCacheSize is the default number of cached search results.
const DefaultSearchCacheSize = 512

// searchKey identifies one search. The store generation is part of the key so
// results computed against an older snapshot are never served after a load.
type searchKey struct {
	generation uint64
	level      string
	context    string
	parent     CodeKey
	grandpa    CodeKey
	query      string
}

type searchEntry struct {
	key   searchKey
	value []CodeIdentifier
}

// searchCache is a thread-safe LRU of search results.
type searchCache struct {
	mu       sync.Mutex
	items    map[searchKey]*list.Element
	order    *list.List
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newSearchCache(capacity int) *searchCache {
	if capacity <= 0 {
		capacity = DefaultSearchCacheSize
	}
	return &searchCache{
		items:    make(map[searchKey]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// get returns a copy of the cached result.
func (c *searchCache) get(key searchKey) ([]CodeIdentifier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	return append([]CodeIdentifier(nil), el.Value.(*searchEntry).value...), true
}

func (c *searchCache) set(key searchKey, value []CodeIdentifier) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := append([]CodeIdentifier(nil), value...)
	if el, ok := c.items[key]; ok {
		el.Value.(*searchEntry).value = stored
		c.order.MoveToFront(el)
		return
	}
	if len(c.items) >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.items, oldest.Value.(*searchEntry).key)
			c.order.Remove(oldest)
		}
	}
	c.items[key] = c.order.PushFront(&searchEntry{key: key, value: stored})
}

func (c *searchCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CacheStats holds search cache statistics.
type CacheStats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// CacheStats returns statistics of the search result cache.
// All fields are zero when caching is disabled.
func (s *Store) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return CacheStats{
		Size:     s.cache.len(),
		Capacity: s.cache.capacity,
		Hits:     s.cache.hits.Load(),
		Misses:   s.cache.misses.Load(),
	}
}
