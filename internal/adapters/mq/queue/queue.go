// Package queue buffers accepted assessments until a worker scores them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Assessment is the payload flowing through the queue.
type Assessment = model.Assessment

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an assessment. It returns false if the queue is full,
	// closed, or ctx is done.
	Enqueue(ctx context.Context, a Assessment) bool

	// Dequeue returns a channel of pending assessments. It is closed once
	// the queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan Assessment

	// Len returns the current number of pending assessments.
	Len(ctx context.Context) int

	// Close stops accepting assessments; pending ones are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Assessment
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Assessment, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds an assessment to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Assessment) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return false
	}

	select {
	case q.items <- a:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		metrics.RecordQueueRejected("full")
		return false
	}
}

// Dequeue returns a channel that will receive assessments as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Assessment {
	out := make(chan Assessment)
	go func() {
		defer close(out)
		for {
			select {
			case a, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- a:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of pending assessments.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

func (q *InMemoryQueue) observe() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}
