// Package dedupe guards against committing the same run twice.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Default guard size.
const defaultMaxSize = 4096

// Deduper records committed run ids to ensure at-most-once commits.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it can be committed again. Used when a commit
	// failed after the id was recorded.
	Unrecord(ctx context.Context, id string)

	// Reset forgets every id.
	Reset(ctx context.Context)

	Size() int64
}

// inMemoryDeduper keeps the most recently recorded ids. Bounded mode evicts
// the least recently used id; unbounded mode never forgets.
type inMemoryDeduper struct {
	maxSize int

	bounded *lru.Cache[string, struct{}]

	mu        sync.Mutex
	unbounded map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}

	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize > 0 {
		c, err := lru.New[string, struct{}](d.maxSize)
		if err != nil {
			// Only returned for a non-positive size.
			panic(err)
		}
		d.bounded = c
	} else {
		d.unbounded = make(map[string]struct{})
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.bounded != nil {
		// Get refreshes recency; ContainsOrAdd does not.
		if _, ok := d.bounded.Get(id); ok {
			return true
		}
		seen, _ := d.bounded.ContainsOrAdd(id, struct{}{})
		return seen
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.unbounded[id]; ok {
		return true
	}
	d.unbounded[id] = struct{}{}
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	if d.bounded != nil {
		d.bounded.Remove(id)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.unbounded, id)
}

// Reset implements Deduper.
func (d *inMemoryDeduper) Reset(_ context.Context) {
	if d.bounded != nil {
		d.bounded.Purge()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unbounded = make(map[string]struct{})
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	if d.bounded != nil {
		return int64(d.bounded.Len())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.unbounded))
}
