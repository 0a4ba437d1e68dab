// Package queue provides an unbounded FIFO whose Pop suspends until an item
// arrives, the context ends, or the queue is closed.
//
// Push never blocks, so a single producer (the client's reader goroutine)
// can feed any number of queues without being stalled by slow consumers.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pop once the queue is closed and drained.
var ErrClosed = errors.New("queue: closed")

// Queue is an unbounded, goroutine-safe FIFO. The zero value is not
// usable; create queues with New.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{} // closed (and replaced) on every Push and on Close
	closed bool
}

// New returns an empty open queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{})}
}

// Push appends v. Returns false if the queue is closed; the item is dropped.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	close(q.ready)
	q.ready = make(chan struct{})
	return true
}

// Pop removes and returns the oldest item, waiting while the queue is
// empty. Items pushed before Close are still returned after it; once the
// queue is closed and empty Pop returns ErrClosed.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if v, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			var zero T
			return zero, ErrClosed
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil // release the backing array
	}
	return v, true
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes all waiters. Safe to call more
// than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}
