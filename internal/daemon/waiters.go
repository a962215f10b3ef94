package daemon

import (
	"sync"

	"ascbridge/internal/wire"
)

// waiters hands answers to callers blocked in Send. Several callers may wait
// on the same key; each answer releases the oldest one.
type waiters struct {
	mu      sync.Mutex
	pending map[string][]chan wire.Answer
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[string][]chan wire.Answer)}
}

func (w *waiters) add(key string) chan wire.Answer {
	ch := make(chan wire.Answer, 1)
	w.mu.Lock()
	w.pending[key] = append(w.pending[key], ch)
	w.mu.Unlock()
	return ch
}

func (w *waiters) remove(key string, ch chan wire.Answer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := w.pending[key]
	for i, candidate := range list {
		if candidate == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(w.pending, key)
		return
	}
	w.pending[key] = list
}

// resolve reports whether a waiter took the answer.
func (w *waiters) resolve(key string, answer wire.Answer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := w.pending[key]
	if len(list) == 0 {
		return false
	}
	ch := list[0]
	if len(list) == 1 {
		delete(w.pending, key)
	} else {
		w.pending[key] = list[1:]
	}
	ch <- answer
	return true
}

func (w *waiters) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, list := range w.pending {
		n += len(list)
	}
	return n
}
