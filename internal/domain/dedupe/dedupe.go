// Package dedupe tracks idempotency keys of report submissions.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper maps idempotency keys to the job they first created.
type Deduper interface {
	// Claim atomically binds key to id unless key is already bound. When it
	// is, the bound id is returned with duplicate=true and nothing changes.
	Claim(ctx context.Context, key, id string) (existing string, duplicate bool)

	// Release forgets key so it can be claimed again. Used when the job it
	// was claimed for could not be enqueued.
	Release(ctx context.Context, key string)

	Size() int64
}

// node is one key in the recency list.
type node struct {
	key        string
	id         string
	prev, next *node
}

func (n *node) reset() {
	n.key = ""
	n.id = ""
	n.prev = nil
	n.next = nil
}

// inMemoryDeduper implements Deduper with a map and a doubly linked list.
// For bounded mode (maxSize > 0) the oldest claim is evicted first and nodes
// are recycled through a sync.Pool.
// For unbounded mode (maxSize <= 0) keys are never evicted.
type inMemoryDeduper struct {
	mu       sync.Mutex
	claims   map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10_000,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.claims = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.claims[key]; exists {
		return n.id, true
	}

	if d.maxSize > 0 && len(d.claims) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.key = key
	n.id = id
	d.pushFront(n)
	d.claims[key] = n
	d.size.Add(1)
	return id, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, exists := d.claims[key]
	if !exists {
		return
	}
	d.remove(n)
}

// Size returns the current number of claimed keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Must be called with d.mu held.
func (d *inMemoryDeduper) pushFront(n *node) {
	n.prev = nil
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
}

// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.remove(d.tail)
	}
}

// Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.claims, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}
