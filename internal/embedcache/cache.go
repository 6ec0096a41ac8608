// Package embedcache provides a bounded, recency-ordered cache of
// computed embeddings.
//
// The cache is a pure optimisation: a miss only re-triggers embedding
// computation, it never changes results. Keys are the verbatim text;
// callers are responsible for any normalisation such as trimming.
package embedcache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the default maximum number of entries.
const DefaultCapacity = 1000

// entry is a single cached embedding.
type entry struct {
	text   string
	vector []float32
}

// Cache is a capacity-bounded LRU cache mapping text to its embedding.
// Get and Put are O(1) and safe for concurrent use; each runs in a
// single critical section, so eviction order is consistent under
// concurrent callers. Racing Puts for the same key are last-write-wins.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently used
	items    map[string]*list.Element // text -> element holding *entry
}

// New creates a cache holding at most capacity entries. A capacity
// below 1 falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached embedding for text. A hit refreshes recency.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[text]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).vector, true
}

// Put stores the embedding for text, evicting the least-recently-used
// entry first when at capacity.
func (c *Cache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[text]; ok {
		el.Value.(*entry).vector = vector
		c.order.MoveToFront(el)
		return
	}

	if len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).text)
		}
	}

	c.items[text] = c.order.PushFront(&entry{text: text, vector: vector})
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
