package search

import (
	"container/list"
	"sync"
	"time"

	"github.com/tadabbur-search-api/internal/models"
)

// responseCache is a bounded LRU of successful search responses keyed by
// (folded query, options). Concepts are immutable within a deployment, so
// a cached response stays correct until it expires.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = most recent
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	key      string
	response *models.MultiConceptSearchResponse
	storedAt time.Time
}

func newResponseCache(maxSize int, ttl time.Duration) *responseCache {
	if maxSize <= 0 {
		return nil
	}
	return &responseCache{
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *responseCache) get(key string) (*models.MultiConceptSearchResponse, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	elem, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Since(entry.storedAt) > c.ttl {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current == elem {
			c.order.Remove(elem)
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.order.MoveToFront(elem)
	c.mu.Unlock()
	return entry.response, true
}

func (c *responseCache) put(key string, response *models.MultiConceptSearchResponse) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).response = response
		elem.Value.(*cacheEntry).storedAt = time.Now()
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{
		key:      key,
		response: response,
		storedAt: time.Now(),
	})

	for len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
