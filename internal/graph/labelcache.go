package graph

import "sync"

// labelCache suppresses repeated "create constraint/index for this label"
// round-trips once a label has been seen once by this process. It is
// process-wide, mutable, and concurrency-safe, and never expires entries —
// a label created once stays valid for the lifetime of the graph, so there
// is nothing to invalidate.
type labelCache struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func newLabelCache() *labelCache {
	return &labelCache{seen: make(map[string]struct{})}
}

// ensure returns true if label was already known, and records it as known
// either way. The caller should skip constraint/index creation when it
// returns true.
func (c *labelCache) ensure(label string) (known bool) {
	c.mu.RLock()
	_, known = c.seen[label]
	c.mu.RUnlock()
	if known {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[label]; ok {
		return true
	}
	c.seen[label] = struct{}{}
	return false
}
