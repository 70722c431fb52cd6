package notify

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize: буфер событий до вытеснения.
const DefaultQueueSize = 256

// Queue: буферизованный канал событий с политикой drop_oldest:
// при переполнении выкидывается самое старое, писатель не ждёт читателя.
type Queue struct {
	mu      sync.Mutex
	ch      chan Event
	dropped atomic.Int64
	closed  bool
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Event, size)}
}

func (q *Queue) Send(msg string) { q.Publish(LogEvent("", msg)) }

func (q *Queue) Sendf(format string, args ...any) { q.Send(fmt.Sprintf(format, args...)) }

// Publish кладёт событие; при полном буфере вытесняет самое старое.
func (q *Queue) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.ch <- ev:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Events: канал для единственного читателя (презентера).
func (q *Queue) Events() <-chan Event { return q.ch }

// Dropped: сколько событий вытеснено.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Close закрывает канал; дальнейшие Publish игнорируются.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
