package lookup

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is a bounded key/value cache with least-recently-used eviction and
// a per-entry time-to-live. Capacity and TTL are explicit so every user of
// the cache states its bounds; there is no unbounded module-level map to
// evict by hand.
type TTLCache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
	now      func() time.Time
}

type cacheEntry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// NewTTLCache creates a cache holding at most capacity entries, each valid
// for ttl after insertion.
func NewTTLCache[V any](capacity int, ttl time.Duration) *TTLCache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &TTLCache[V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	element, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	entry := element.Value.(*cacheEntry[V])
	if c.now().After(entry.expires) {
		c.order.Remove(element)
		delete(c.entries, key)
		return zero, false
	}
	c.order.MoveToFront(element)
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when the
// cache is full.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*cacheEntry[V])
		entry.value = value
		entry.expires = c.now().Add(c.ttl)
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry[V]).key)
		}
	}

	element := c.order.PushFront(&cacheEntry[V]{
		key:     key,
		value:   value,
		expires: c.now().Add(c.ttl),
	})
	c.entries[key] = element
}

// Len returns the number of live entries, expired ones included until their
// next Get.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
