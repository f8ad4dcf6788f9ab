package app

import (
	"sync"

	"github.com/bft-labs/bulkd/internal/domain"
)

// packQueue is an unbounded FIFO of packs with its own lock and condition.
// Consumers take the whole content at once.
type packQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []domain.Pack
	closed bool
}

func newPackQueue() *packQueue {
	q := &packQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends p and wakes one waiting consumer, or all of them when wakeAll is set.
func (q *packQueue) push(p domain.Pack, wakeAll bool) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()

	if wakeAll {
		q.cond.Broadcast()
	} else {
		q.cond.Signal()
	}
}

// close marks the queue as shutting down. Waiting consumers are woken by
// the sentinel pushed afterwards.
func (q *packQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// take blocks until the queue is non-empty or closed, then swaps the whole
// content out in exchange for spare, which is reused as the new backing
// store. It returns false once the queue is closed and drained.
func (q *packQueue) take(spare []domain.Pack) ([]domain.Pack, bool) {
	clear(spare)
	spare = spare[:0]

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return spare, false
	}

	batch := q.items
	q.items = spare
	return batch, true
}

// len returns the number of queued packs.
func (q *packQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
