package promise

import (
	"github.com/settld/promise/internal/box"
)

// Guarantee is an asynchronous value that eventually settles with a T and
// cannot fail. Because rejection is unrepresentable, a Guarantee's Box
// stores the bare T, not a Result[T].
type Guarantee[T any] interface {
	// Pipe attaches cb to run once this guarantee settles.
	Pipe(cb func(T))

	// Result returns a snapshot: ok is false while pending.
	Result() (val T, ok bool)

	// IsPending reports whether the guarantee has not yet settled.
	IsPending() bool

	// Value returns the settled value, or T's zero value while pending.
	Value() T

	// Wait blocks until the guarantee settles and returns the value.
	Wait() T
}

type genericGuarantee[T any] struct {
	b *box.Box[T]
}

func (g *genericGuarantee[T]) Pipe(cb func(T)) {
	g.b.Pipe(cb)
}

// asThenable adapts g into a Thenable[T], wrapping each settled value as
// Fulfilled(v) — a Guarantee can never pipe a rejection.
func (g *genericGuarantee[T]) asThenable() Thenable[T] {
	return guaranteeThenable[T]{g: g}
}

type guaranteeThenable[T any] struct {
	g *genericGuarantee[T]
}

func (t guaranteeThenable[T]) Pipe(cb func(Result[T])) {
	t.g.Pipe(func(v T) { cb(Fulfilled(v)) })
}

func (t guaranteeThenable[T]) identity() any {
	return t.g.b
}

func (g *genericGuarantee[T]) Result() (T, bool) {
	return g.b.Snapshot()
}

func (g *genericGuarantee[T]) IsPending() bool {
	return !g.b.IsResolved()
}

func (g *genericGuarantee[T]) Value() T {
	v, _ := g.b.Snapshot()
	return v
}

func (g *genericGuarantee[T]) Wait() T {
	if isMainThread() {
		logEvent(Event{Kind: WaitOnMainThread})
	}

	done := make(chan struct{})
	var v T
	g.b.Pipe(func(r T) {
		v = r
		close(done)
	})
	<-done
	return v
}

// NewGuarantee creates a pending Guarantee[T] and hands its
// GuaranteeResolver to executor, running executor via dispatcher (the
// library's default processing dispatcher if omitted). Unlike New, a panic
// inside executor is not convertible into a rejection — there is none to
// convert to — so it propagates to the dispatcher's goroutine unchanged.
func NewGuarantee[T any](executor func(r *GuaranteeResolver[T]), dispatcher ...Dispatcher) Guarantee[T] {
	if executor == nil {
		panic("promise: NewGuarantee called with a nil executor")
	}

	b := box.New[T]()
	g := &genericGuarantee[T]{b: b}
	r := newGuaranteeResolver[T](b)

	d := dispatcherFor(firstOrNil(dispatcher), defaultProcessingDispatcher)
	d.Schedule(func() {
		executor(r)
	})

	return g
}

// GuaranteeValue returns an already-settled Guarantee[T].
func GuaranteeValue[T any](v T) Guarantee[T] {
	return &genericGuarantee[T]{b: box.Sealed(v)}
}
