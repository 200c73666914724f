// Package box implements the single-writer, multi-reader state cell that
// backs every Promise and Guarantee: a Box starts pending with an ordered
// list of handlers and transitions, at most once, to resolved(value).
package box

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// Box is a thread-safe cell holding either pending(handlers) or
// resolved(value). R is the raw value sealed into the box — Result[T] for a
// Promise[T], T itself for a Guarantee[T].
//
// The zero value is a valid, pending Box.
type Box[R any] struct {
	mu       deadlock.Mutex
	resolved bool
	value    R
	handlers []func(R)
}

// New returns a pending Box.
func New[R any]() *Box[R] {
	return &Box[R]{}
}

// Sealed returns an already-resolved Box holding v. No handler list is ever
// allocated for it.
func Sealed[R any](v R) *Box[R] {
	return &Box[R]{resolved: true, value: v}
}

// Pipe attaches cb to run with the box's value once resolved. If the box is
// already resolved, cb runs immediately, synchronously, on the calling
// goroutine. Otherwise cb is appended to the handler list and runs, exactly
// once, from whichever goroutine calls Seal.
func (b *Box[R]) Pipe(cb func(R)) {
	b.mu.Lock()
	if b.resolved {
		v := b.value
		b.mu.Unlock()
		cb(v)
		return
	}
	b.handlers = append(b.handlers, cb)
	b.mu.Unlock()
}

// Seal transitions the box from pending to resolved(v). A second call on an
// already-resolved box is a silent no-op — the first settlement wins. This
// idempotency is relied upon by race-style aggregators, where multiple
// goroutines may call Seal concurrently and only one may win.
//
// Handlers registered before the winning Seal run after the lock is
// released, in registration order, so that a handler is free to settle
// another Box guarded by this same discipline without deadlocking.
func (b *Box[R]) Seal(v R) {
	b.mu.Lock()
	if b.resolved {
		b.mu.Unlock()
		return
	}
	b.resolved = true
	b.value = v
	handlers := b.handlers
	b.handlers = nil
	b.mu.Unlock()

	for _, h := range handlers {
		h(v)
	}
}

// Snapshot returns the box's current value and whether it is resolved. It
// never blocks and never reports a value that a later Snapshot would
// contradict.
func (b *Box[R]) Snapshot() (R, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.resolved
}

// IsResolved reports whether the box has settled, without returning the
// value.
func (b *Box[R]) IsResolved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolved
}
