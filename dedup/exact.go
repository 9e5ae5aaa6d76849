package dedup

import "github.com/poiesic/witness/core"

// ExactCache is a bounded FIFO set of content hashes.
type ExactCache struct {
	capacity int
	order    []core.Hash
	members  map[core.Hash]struct{}
}

// NewExactCache creates a cache holding at most capacity hashes.
func NewExactCache(capacity int) *ExactCache {
	if capacity <= 0 {
		capacity = DefaultExactCapacity
	}
	return &ExactCache{
		capacity: capacity,
		order:    make([]core.Hash, 0, capacity),
		members:  make(map[core.Hash]struct{}, capacity),
	}
}

// Contains reports whether content was remembered and not yet evicted.
func (c *ExactCache) Contains(content string) bool {
	_, ok := c.members[core.HashContent(content)]
	return ok
}

// Remember records content, evicting the oldest hash when over capacity.
func (c *ExactCache) Remember(content string) {
	h := core.HashContent(content)
	if _, ok := c.members[h]; ok {
		return
	}
	c.members[h] = struct{}{}
	c.order = append(c.order, h)
	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.members, oldest)
	}
}

// Len returns the number of remembered hashes.
func (c *ExactCache) Len() int {
	return len(c.order)
}
