package workqueue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is a channel-backed Queue for tests and local/offline
// operation; each named queue gets its own buffered channel created
// lazily on first use.
type MemoryQueue struct {
	mu      sync.Mutex
	queues  map[string]chan string
	buffer  int
}

// NewMemoryQueue returns an empty in-memory queue. buffer bounds each named
// queue's channel capacity; 0 falls back to a generous default so Enqueue
// never blocks in tests.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 10000
	}
	return &MemoryQueue{queues: map[string]chan string{}, buffer: buffer}
}

func (q *MemoryQueue) chanFor(queueName string) chan string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.queues[queueName]
	if !ok {
		ch = make(chan string, q.buffer)
		q.queues[queueName] = ch
	}
	return ch
}

func (q *MemoryQueue) Enqueue(ctx context.Context, queueName, tiid string) error {
	q.chanFor(queueName) <- tiid
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (string, bool, error) {
	select {
	case tiid := <-q.chanFor(queueName):
		return tiid, true, nil
	case <-time.After(timeout):
		return "", false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (q *MemoryQueue) Size(ctx context.Context, queueName string) (int64, error) {
	return int64(len(q.chanFor(queueName))), nil
}
