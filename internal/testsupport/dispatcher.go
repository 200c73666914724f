// Package testsupport provides a tiny deterministic Dispatcher for tests
// that need to control exactly when a scheduled continuation runs, instead
// of racing against the library's default AsyncDispatcher.
package testsupport

import "sync"

// Queue is a Dispatcher that defers every scheduled func until Drain is
// called, running them in the order Schedule was called. It lets a test
// settle a promise, attach downstream operators, and control precisely
// when those continuations execute.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// Schedule implements promise.Dispatcher.
func (q *Queue) Schedule(f func()) {
	q.mu.Lock()
	q.pending = append(q.pending, f)
	q.mu.Unlock()
}

// Drain runs every func queued so far, including any that Schedule newly
// enqueues as a side effect of running an earlier one, until the queue is
// empty.
func (q *Queue) Drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		f := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		f()
	}
}

// Len reports how many funcs are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
