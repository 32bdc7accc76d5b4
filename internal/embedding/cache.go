package embedding

import (
	"container/list"
	"sync"
)

// CacheStats counts lookups against a Cache.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache keeps the most recently used embeddings keyed by their input text.
// Vectors are copied on the way in and out, so callers may modify what they get.
type Cache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]*list.Element
	order   *list.List // front is most recent
	hits    int
	misses  int
}

type cached struct {
	text   string
	vector []float32
}

// NewCache returns a cache holding up to limit vectors. A limit of zero or less
// turns every Put into a no-op.
func NewCache(limit int) *Cache {
	return &Cache{
		limit:   limit,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get looks text up and marks it as recently used.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[text]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return clone(el.Value.(*cached).vector), true
}

// Put stores vector for text and drops the least recently used entry past the limit.
func (c *Cache) Put(text string, vector []float32) {
	if c.limit <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[text]; ok {
		el.Value.(*cached).vector = clone(vector)
		c.order.MoveToFront(el)
		return
	}
	c.entries[text] = c.order.PushFront(&cached{text: text, vector: clone(vector)})
	for c.order.Len() > c.limit {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*cached).text)
	}
}

// Stats returns the lookup counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.order.Len()}
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}
