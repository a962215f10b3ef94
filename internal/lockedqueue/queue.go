package lockedqueue

import (
	"container/heap"
	"context"
	"errors"
	"sync"
)

// ErrQueueLocked is returned by Put while the queue is locked.
var ErrQueueLocked = errors.New("queue is locked: cannot add items")

// Queue is a lockable priority queue of strings.
type Queue struct {
	mu         sync.Mutex
	items      stringHeap
	locked     bool
	unfinished int
	ready      chan struct{}
}

// New returns an empty, locked queue.
func New() *Queue {
	return &Queue{
		locked: true,
		ready:  make(chan struct{}, 1),
	}
}

// Put inserts item in priority order.
func (q *Queue) Put(item string) error {
	q.mu.Lock()
	if q.locked {
		q.mu.Unlock()
		return ErrQueueLocked
	}
	heap.Push(&q.items, item)
	q.unfinished++
	q.mu.Unlock()
	q.signal()
	return nil
}

// Get blocks until an item is available or ctx is done. Once ctx is done no
// item is removed, even if one is waiting.
func (q *Queue) Get(ctx context.Context) (string, error) {
	for {
		item, ok, err := q.pop(ctx)
		if err != nil {
			return "", err
		}
		if ok {
			return item, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.ready:
		}
	}
}

// TryGet removes the lowest item without blocking.
func (q *Queue) TryGet() (string, bool) {
	item, ok, _ := q.pop(context.Background())
	return item, ok
}

func (q *Queue) pop(ctx context.Context) (string, bool, error) {
	q.mu.Lock()
	if err := ctx.Err(); err != nil {
		q.mu.Unlock()
		return "", false, err
	}
	if q.items.Len() == 0 {
		q.mu.Unlock()
		return "", false, nil
	}
	item := heap.Pop(&q.items).(string)
	more := q.items.Len() > 0
	q.mu.Unlock()
	if more {
		// Another getter may be parked on the same wakeup.
		q.signal()
	}
	return item, true, nil
}

// TaskDone marks one item returned by Get as processed.
func (q *Queue) TaskDone() {
	q.mu.Lock()
	if q.unfinished > 0 {
		q.unfinished--
	}
	q.mu.Unlock()
}

// Unfinished reports items put but not yet marked done.
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Drain discards every queued item and returns how many were dropped.
func (q *Queue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.items.Len()
	q.items = nil
	q.unfinished -= n
	if q.unfinished < 0 {
		q.unfinished = 0
	}
	return n
}

// Lock makes Put fail until Unlock.
func (q *Queue) Lock() {
	q.mu.Lock()
	q.locked = true
	q.mu.Unlock()
}

// Unlock allows Put again.
func (q *Queue) Unlock() {
	q.mu.Lock()
	q.locked = false
	q.mu.Unlock()
}

// Locked reports whether Put is currently rejected.
func (q *Queue) Locked() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.locked
}

// Empty reports whether no items are queued.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

type stringHeap []string

func (h stringHeap) Len() int           { return len(h) }
func (h stringHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h stringHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *stringHeap) Push(x any) { *h = append(*h, x.(string)) }

func (h *stringHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
