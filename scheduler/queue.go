package scheduler

import "sync"

// ResultQueue buffers display lines produced by job ticks until drained.
// Safe for concurrent use.
type ResultQueue struct {
	mu    sync.Mutex
	items []string
}

// NewResultQueue returns an empty queue.
func NewResultQueue() *ResultQueue {
	return &ResultQueue{}
}

// Push appends a result.
func (q *ResultQueue) Push(result string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, result)
}

// Drain returns every buffered result in emission order and empties the queue.
func (q *ResultQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		return []string{}
	}
	return out
}

// Len returns the number of buffered results.
func (q *ResultQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
