// Package promise implements a Promise[T]/Guarantee[T] asynchronous value
// pair: a Promise eventually settles fulfilled with a T or rejected with an
// error; a Guarantee eventually settles with a T and cannot fail. Both
// support chaining via the operators in operators.go, driven by the
// internal Box state cell (internal/box) and an explicit Dispatcher
// abstraction (dispatch.go) that selects the execution context for each
// continuation.
package promise

import (
	"fmt"

	"github.com/settld/promise/internal/box"
)

// Thenable is the capability a then/map/recover body's return value must
// have to be piped into the operator's downstream: something that will
// eventually produce a Result[T]. Promise[T] satisfies it directly;
// Guarantee[T] does not (use RecoverWithGuarantee for the Guarantee-variant
// of recover, which needs no Thenable at all).
type Thenable[T any] interface {
	// Pipe attaches cb to run once this Thenable settles, exactly as
	// Promise[T].Pipe does.
	Pipe(cb func(Result[T]))

	// identity returns a value that uniquely and comparably identifies the
	// Thenable's underlying Box, used by Then's RETURNED_SELF detection.
	identity() any
}

// Promise is an asynchronous value that eventually settles as either
// fulfilled with a T or rejected with an error.
type Promise[T any] interface {
	Thenable[T]

	// Result returns a snapshot of the promise's settlement: ok is false
	// while pending.
	Result() (res Result[T], ok bool)

	// State reports Pending, Fulfilled, or Rejected.
	State() State

	// IsPending, IsFulfilled, IsRejected are convenience predicates derived
	// from State.
	IsPending() bool
	IsFulfilled() bool
	IsRejected() bool

	// Value returns the fulfilled value, or T's zero value if the promise
	// is pending or rejected.
	Value() T
	// Err returns the rejection error, or nil if the promise is pending or
	// fulfilled.
	Err() error

	// Wait blocks the calling goroutine until the promise settles and
	// returns the final Result. It has no context to consult and never
	// fires the WaitOnMainThread log event; WaitContext fires it for a
	// context flagged via MarkMainThread.
	Wait() Result[T]
}

type genericPromise[T any] struct {
	b *box.Box[Result[T]]
}

func (p *genericPromise[T]) Pipe(cb func(Result[T])) {
	p.b.Pipe(cb)
}

func (p *genericPromise[T]) identity() any {
	return p.b
}

func (p *genericPromise[T]) Result() (Result[T], bool) {
	return p.b.Snapshot()
}

func (p *genericPromise[T]) State() State {
	res, ok := p.b.Snapshot()
	if !ok {
		return Pending
	}
	return res.State()
}

func (p *genericPromise[T]) IsPending() bool   { return p.State() == Pending }
func (p *genericPromise[T]) IsFulfilled() bool { return p.State() == StateFulfilled }
func (p *genericPromise[T]) IsRejected() bool  { return p.State() == StateRejected }

func (p *genericPromise[T]) Value() T {
	res, _ := p.b.Snapshot()
	return res.Value()
}

func (p *genericPromise[T]) Err() error {
	res, _ := p.b.Snapshot()
	return res.Err()
}

func (p *genericPromise[T]) Wait() Result[T] {
	if isMainThread() {
		logEvent(Event{Kind: WaitOnMainThread})
	}

	done := make(chan struct{})
	var res Result[T]
	p.b.Pipe(func(r Result[T]) {
		res = r
		close(done)
	})
	<-done
	return res
}

// New creates a pending Promise[T] and hands its Resolver to executor,
// running executor via dispatcher (the library's default processing
// dispatcher if dispatcher is omitted). A panic inside executor rejects the
// promise with the recovered value, wrapped, instead of crashing the
// dispatcher goroutine.
func New[T any](executor func(r *Resolver[T]), dispatcher ...Dispatcher) Promise[T] {
	if executor == nil {
		panic("promise: New called with a nil executor")
	}

	b := box.New[Result[T]]()
	p := &genericPromise[T]{b: b}
	r := newResolver[T](b)

	d := dispatcherFor(firstOrNil(dispatcher), defaultProcessingDispatcher)
	d.Schedule(func() {
		defer recoverInto(r)
		executor(r)
	})

	return p
}

// Go runs fn in a new goroutine (via AsyncDispatcher) and returns a Promise
// that settles with fn's result. A panic inside fn rejects the promise with
// the recovered value.
func Go[T any](fn func() (T, error)) Promise[T] {
	return New(func(r *Resolver[T]) {
		val, err := fn()
		r.CallbackValErr(val, err)
	}, AsyncDispatcher)
}

// Value returns an already-fulfilled Promise[T].
func Value[T any](v T) Promise[T] {
	return &genericPromise[T]{b: box.Sealed(Fulfilled(v))}
}

// Err returns an already-rejected Promise[T].
func Err[T any](err error) Promise[T] {
	return &genericPromise[T]{b: box.Sealed(Rejected[T](err))}
}

// Of returns an already-settled Promise[T] holding res.
func Of[T any](res Result[T]) Promise[T] {
	return &genericPromise[T]{b: box.Sealed(res)}
}

func recoverInto[T any](r *Resolver[T]) {
	if v := recover(); v != nil {
		r.Reject(newPanicError(v))
	}
}

// panicError wraps a recovered panic value as an error so it can flow
// through the same rejection channel as any other error.
type panicError struct {
	v any
}

func newPanicError(v any) error {
	if err, ok := v.(error); ok {
		return &panicError{v: err}
	}
	return &panicError{v: v}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("promise: recovered panic: %v", e.v)
}

func (e *panicError) Unwrap() error {
	if err, ok := e.v.(error); ok {
		return err
	}
	return nil
}

func firstOrNil(ds []Dispatcher) Dispatcher {
	if len(ds) == 0 {
		return nil
	}
	return ds[0]
}
