// ABOUTME: Per-bot FIFO of outbound chat lines waiting for connectivity.
// ABOUTME: Unbounded, survives reconnect attempts, drained wholesale at flush start.

package fleet

import (
	"sync"
	"time"
)

// QueuedMessage is one chat line held for later delivery.
type QueuedMessage struct {
	Text     string
	QueuedAt time.Time
}

// Queue is a thread-safe FIFO of pending outbound chat. Enqueue is always
// available regardless of connection state.
type Queue struct {
	mu    sync.Mutex
	items []QueuedMessage
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a chat line to the queue.
func (q *Queue) Push(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, QueuedMessage{Text: text, QueuedAt: time.Now()})
}

// Drain removes and returns every queued message in FIFO order. The queue
// is emptied immediately; delivery of the drained messages is not
// confirmed, so a failure mid-flush loses them. That matches the flush
// protocol this package implements.
func (q *Queue) Drain() []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
