// Package dedupe tracks assessment ids for idempotent submission.
package dedupe

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSize is the number of ids remembered when no size is configured.
const DefaultMaxSize = 50000

// Deduper records seen assessment ids to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission rejected downstream
	// (e.g., queue backpressure) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// lruDeduper evicts the least recently recorded id once full.
type lruDeduper struct {
	maxSize int
	cache   *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a bounded deduper.
func NewInMemoryDeduper(opts ...Option) (Deduper, error) {
	d := &lruDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	cache, err := lru.New[string, struct{}](d.maxSize)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	d.cache = cache
	return d, nil
}

func (d *lruDeduper) SeenAndRecord(_ context.Context, id string) bool {
	seen, _ := d.cache.ContainsOrAdd(id, struct{}{})
	return seen
}

func (d *lruDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Remove(id)
}

func (d *lruDeduper) Size() int64 {
	return int64(d.cache.Len())
}
