// Package dedupe tracks keys that were already emitted, such as alert
// messages produced while seeding the store.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Size returns the number of remembered keys.
	Size() int
}

// inMemoryDeduper remembers every key, or the newest maxSize keys when
// bounded.
type inMemoryDeduper struct {
	maxSize int // <= 0 means unbounded

	mu   sync.Mutex
	seen map[string]struct{}

	recent *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		// lru.New only fails for a non-positive size.
		d.recent, _ = lru.New[string, struct{}](d.maxSize)
		return d
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	if d.recent != nil {
		seen, _ := d.recent.ContainsOrAdd(key, struct{}{})
		return seen
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	if d.recent != nil {
		return d.recent.Len()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
