package syncqueue

import "sync"

// fifo is an unbounded queue with non-blocking push and blocking pop.
// Producers on the caller side must never wait on sync activity, so the
// queue buffers without bound; event-sized traffic keeps it small in
// practice.
type fifo struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []Message
}

func newFIFO() *fifo {
	q := &fifo{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *fifo) push(m Message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a message is available.
func (q *fifo) pop() Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.cond.Wait()
	}

	m := q.items[0]
	q.items = q.items[1:]
	return m
}

func (q *fifo) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
