// Package pathqueue provides the bounded entry queue between a scanning
// producer and downstream consumers.
//
// The queue has a fixed capacity chosen at construction. Producers block
// while the queue is full - entries are never dropped and the queue never
// grows - which is what gives the scanner bounded-memory behavior under a
// slow consumer. The capacity should be high enough to form a useful buffer
// between the two sides.
package pathqueue

import (
	"context"
	"errors"

	"github.com/joe/treescan/pkg/entry"
)

// ErrInvalidCapacity is returned by New for a non-positive capacity.
var ErrInvalidCapacity = errors.New("queue capacity must be positive")

// Queue is a fixed-capacity blocking queue of entries.
// It is safe for concurrent use by one or more producers and consumers.
type Queue struct {
	ch chan *entry.Entry
}

// New creates a queue with the given fixed capacity.
func New(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Queue{ch: make(chan *entry.Entry, capacity)}, nil
}

// Put enqueues an entry, blocking while the queue is full.
// It returns the context error if ctx is cancelled while waiting.
// Ownership of the entry passes to the queue on success.
func (q *Queue) Put(ctx context.Context, e *entry.Entry) error {
	select {
	case q.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Take dequeues an entry, blocking while the queue is empty.
// It returns the context error if ctx is cancelled while waiting.
func (q *Queue) Take(ctx context.Context) (*entry.Entry, error) {
	select {
	case e := <-q.ch:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryTake dequeues an entry without blocking.
// It returns false when the queue is empty.
func (q *Queue) TryTake() (*entry.Entry, bool) {
	select {
	case e := <-q.ch:
		return e, true
	default:
		return nil, false
	}
}

// Len returns the number of entries currently buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
