// Package cache bounds the persistence store's in-process footprint with
// a container/list-backed LRU+TTL layer wrapping any persistence.Store.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/skufu/lyricsync/internal/persistence"
)

// LRUStore wraps a persistence.Store with a bounded, time-limited
// in-memory layer. Reads are served from memory when fresh; misses and
// writes pass through to the underlying store, which is never evicted
// itself. This keeps the process's hot-set small without truncating
// what's actually persisted to disk.
type LRUStore struct {
	mu         sync.Mutex
	underlying persistence.Store
	maxSize    int
	ttl        time.Duration
	entries    map[string]*list.Element
	order      *list.List
}

type cacheEntry struct {
	key       string
	value     string
	timestamp time.Time
}

// NewLRUStore wraps underlying with an in-memory cache holding at most
// maxSize entries, each valid for ttl.
func NewLRUStore(underlying persistence.Store, maxSize int, ttl time.Duration) *LRUStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LRUStore{
		underlying: underlying,
		maxSize:    maxSize,
		ttl:        ttl,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the value for key, serving from the in-memory layer when
// present and fresh, otherwise falling through to the underlying store.
func (c *LRUStore) Get(key string) (string, bool, error) {
	if value, ok := c.getCached(key); ok {
		return value, true, nil
	}

	value, ok, err := c.underlying.Get(key)
	if err != nil || !ok {
		return value, ok, err
	}

	c.setCached(key, value)
	return value, true, nil
}

// Put writes key through to the underlying store and refreshes the
// in-memory entry.
func (c *LRUStore) Put(key, value string) error {
	if err := c.underlying.Put(key, value); err != nil {
		return err
	}
	c.setCached(key, value)
	return nil
}

func (c *LRUStore) getCached(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Since(entry.timestamp) > c.ttl {
		c.removeUnsafe(elem)
		return "", false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

func (c *LRUStore) setCached(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.timestamp = time.Now()
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, value: value, timestamp: time.Now()})
	c.entries[key] = elem
	c.enforceMaxSizeUnsafe()
}

func (c *LRUStore) enforceMaxSizeUnsafe() {
	for c.order.Len() > c.maxSize {
		back := c.order.Back()
		if back == nil {
			return
		}
		c.removeUnsafe(back)
	}
}

func (c *LRUStore) removeUnsafe(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}

// Size returns the number of entries currently held in memory.
func (c *LRUStore) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the in-memory layer without touching the underlying
// store.
func (c *LRUStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}
