package eventsource

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// StateCache is a thread-safe LRU of aggregate snapshots.
// It is an optimization only: callers always catch a cached snapshot up from the
// log before using it, and a Put never replaces a newer version with an older one.
// A cache with capacity <= 0 stores nothing.
type StateCache[S any] struct {
	mu       sync.Mutex
	capacity int
	cache    map[uuid.UUID]*list.Element
	order    *list.List
}

type cacheEntry[S any] struct {
	snap Snapshot[S]
}

// NewStateCache creates a new LRU cache with the given capacity.
func NewStateCache[S any](capacity int) *StateCache[S] {
	return &StateCache[S]{
		capacity: capacity,
		cache:    make(map[uuid.UUID]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached snapshot for id.
// Snapshots are treated as immutable, so the stored value is returned as is.
func (c *StateCache[S]) Get(id uuid.UUID) (Snapshot[S], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[id]
	if !exists {
		return Snapshot[S]{}, false
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry[S]).snap, true
}

// Put stores snap unless a snapshot with a higher version is already cached,
// evicting the least recently used entry if full.
func (c *StateCache[S]) Put(snap Snapshot[S]) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[snap.ID]; exists {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry[S])
		if snap.Version > entry.snap.Version {
			entry.snap = snap
		}
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.cache, oldest.Value.(*cacheEntry[S]).snap.ID)
			c.order.Remove(oldest)
		}
	}

	c.cache[snap.ID] = c.order.PushFront(&cacheEntry[S]{snap: snap})
}

// Invalidate removes id from the cache.
func (c *StateCache[S]) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[id]
	if !exists {
		return
	}

	delete(c.cache, id)
	c.order.Remove(elem)
}

// Len returns the number of cached snapshots.
func (c *StateCache[S]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
