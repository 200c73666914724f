package promise

import (
	"github.com/settld/promise/internal/box"
)

// Void is the settlement value of operators that discard their upstream's
// value (as_void, done).
type Void = struct{}

func newPendingPromise[T any]() (*genericPromise[T], func(Result[T])) {
	b := box.New[Result[T]]()
	return &genericPromise[T]{b: b}, b.Seal
}

func newPendingGuarantee[T any]() (*genericGuarantee[T], func(T)) {
	b := box.New[T]()
	return &genericGuarantee[T]{b: b}, b.Seal
}

// panicToError turns a recovered panic value into an error, or returns nil
// if there was none. Call it as `if err := panicToError(recover()); err !=
// nil` inside a deferred func, since recover only has effect when called
// directly by the deferred function itself.
func panicToError(v any) error {
	if v != nil {
		return newPanicError(v)
	}
	return nil
}

// Then runs body with the upstream's fulfilled value and pipes whatever
// Thenable body returns into the downstream. A panic inside body rejects
// the downstream. If body returns the very downstream Promise being
// resolved, the downstream rejects with ErrReturnedSelf instead of
// deadlocking on a self-referential pipe.
func Then[T, U any](p Promise[T], body func(T) Thenable[U], dispatcher ...Dispatcher) Promise[U] {
	d, seal := newPendingPromise[U]()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			seal(Rejected[U](res.Err()))
			return
		}

		dispatcherFor(firstOrNil(dispatcher), defaultProcessingDispatcher).Schedule(func() {
			next, err := runThenBody(body, res.Value())
			if err != nil {
				seal(Rejected[U](err))
				return
			}
			if next.identity() == d.identity() {
				seal(Rejected[U](ErrReturnedSelf))
				return
			}
			next.Pipe(seal)
		})
	})

	return d
}

func runThenBody[T, U any](body func(T) Thenable[U], v T) (next Thenable[U], err error) {
	defer func() {
		if e := panicToError(recover()); e != nil {
			err = e
		}
	}()
	next = body(v)
	return
}

// Map settles the downstream with body's return value, or rejects it with
// body's error (including a recovered panic).
func Map[T, U any](p Promise[T], body func(T) (U, error), dispatcher ...Dispatcher) Promise[U] {
	d, seal := newPendingPromise[U]()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			seal(Rejected[U](res.Err()))
			return
		}

		dispatcherFor(firstOrNil(dispatcher), defaultProcessingDispatcher).Schedule(func() {
			seal(settleMap(body, res.Value()))
		})
	})

	return d
}

func settleMap[T, U any](body func(T) (U, error), v T) (res Result[U]) {
	defer func() {
		if err := panicToError(recover()); err != nil {
			res = Rejected[U](err)
		}
	}()
	u, err := body(v)
	if err != nil {
		return Rejected[U](err)
	}
	return Fulfilled(u)
}

// CompactMap runs body, which returns (value, ok, err). If ok is false and
// err is nil, the downstream rejects with ErrCompactMapNil (the "none"
// case). If err is non-nil, the downstream rejects with err.
func CompactMap[T, U any](p Promise[T], body func(T) (U, bool, error), dispatcher ...Dispatcher) Promise[U] {
	d, seal := newPendingPromise[U]()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			seal(Rejected[U](res.Err()))
			return
		}

		dispatcherFor(firstOrNil(dispatcher), defaultProcessingDispatcher).Schedule(func() {
			seal(settleCompactMap(body, res.Value()))
		})
	})

	return d
}

func settleCompactMap[T, U any](body func(T) (U, bool, error), v T) (res Result[U]) {
	defer func() {
		if err := panicToError(recover()); err != nil {
			res = Rejected[U](err)
		}
	}()
	u, ok, err := body(v)
	if err != nil {
		return Rejected[U](err)
	}
	if !ok {
		return Rejected[U](ErrCompactMapNil)
	}
	return Fulfilled(u)
}

// Done runs body for its side effect and fulfills the downstream with Void
// if it returns without error, or rejects with body's error otherwise.
func Done[T any](p Promise[T], body func(T) error, dispatcher ...Dispatcher) Promise[Void] {
	d, seal := newPendingPromise[Void]()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			seal(Rejected[Void](res.Err()))
			return
		}

		dispatcherFor(firstOrNil(dispatcher), defaultTerminalDispatcher).Schedule(func() {
			seal(settleDone(body, res.Value()))
		})
	})

	return d
}

func settleDone[T any](body func(T) error, v T) (res Result[Void]) {
	defer func() {
		if err := panicToError(recover()); err != nil {
			res = Rejected[Void](err)
		}
	}()
	if err := body(v); err != nil {
		return Rejected[Void](err)
	}
	return Fulfilled(Void{})
}

// Get runs body for its side effect and, on success, fulfills the
// downstream with the original upstream value unchanged. On error (or
// panic) the downstream rejects.
func Get[T any](p Promise[T], body func(T) error, dispatcher ...Dispatcher) Promise[T] {
	d, seal := newPendingPromise[T]()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			seal(Rejected[T](res.Err()))
			return
		}

		dispatcherFor(firstOrNil(dispatcher), defaultTerminalDispatcher).Schedule(func() {
			seal(settleGet(body, res.Value()))
		})
	})

	return d
}

func settleGet[T any](body func(T) error, v T) (res Result[T]) {
	defer func() {
		if err := panicToError(recover()); err != nil {
			res = Rejected[T](err)
		}
	}()
	if err := body(v); err != nil {
		return Rejected[T](err)
	}
	return Fulfilled(v)
}

// Tap runs body with the full Result, on both fulfillment and rejection,
// purely for observation, and always settles the downstream with the same
// Result it observed. body must not panic: a panic inside it is not
// converted into a rejection; it propagates on whichever goroutine the
// dispatcher runs body on, and the downstream is then never settled.
func Tap[T any](p Promise[T], body func(Result[T]), dispatcher ...Dispatcher) Promise[T] {
	d, seal := newPendingPromise[T]()

	p.Pipe(func(res Result[T]) {
		dispatcherFor(firstOrNil(dispatcher), defaultTerminalDispatcher).Schedule(func() {
			body(res)
			seal(res)
		})
	})

	return d
}

// AsVoid settles the downstream with Void on fulfillment, forwarding
// rejection unchanged. It never hops dispatch contexts: the projection is
// pure and runs inline, synchronously, wherever the upstream settles.
func AsVoid[T any](p Promise[T]) Promise[Void] {
	d, seal := newPendingPromise[Void]()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			seal(Rejected[Void](res.Err()))
			return
		}
		seal(Fulfilled(Void{}))
	})

	return d
}

// Catch consumes a rejection by running body with the error, per the
// library's default CatchPolicy (or the one given via WithCatchPolicy).
// On fulfillment, or when the policy forwards the error instead of handling
// it, body does not run. Either way the returned Finalizer settles once
// body has finished running (or was skipped).
func Catch[T any](p Promise[T], body func(error), opts ...CatchOption) *Finalizer {
	o := resolveCatchOptions(opts)
	f, seal := newFinalizer()

	p.Pipe(func(res Result[T]) {
		if res.IsFulfilled() {
			seal()
			return
		}

		if !shouldHandle(o.policy, res.Err()) {
			seal()
			return
		}

		o.dispatcher().Schedule(func() {
			defer seal()
			defer func() { recover() }()
			body(res.Err())
		})
	})

	return f
}

// Recover substitutes a new Promise for a rejection, per CatchPolicy: if
// the policy forwards the error (e.g. cancellation under
// AllErrorsExceptCancellation), the downstream rejects with it unchanged
// instead of running body.
func Recover[T any](p Promise[T], body func(error) Thenable[T], opts ...CatchOption) Promise[T] {
	o := resolveCatchOptions(opts)
	d, seal := newPendingPromise[T]()

	p.Pipe(func(res Result[T]) {
		if res.IsFulfilled() {
			seal(res)
			return
		}

		if !shouldHandle(o.policy, res.Err()) {
			seal(res)
			return
		}

		o.dispatcher().Schedule(func() {
			next, err := runRecoverBody(body, res.Err())
			if err != nil {
				seal(Rejected[T](err))
				return
			}
			if next.identity() == d.identity() {
				seal(Rejected[T](ErrReturnedSelf))
				return
			}
			next.Pipe(seal)
		})
	})

	return d
}

func runRecoverBody[T any](body func(error) Thenable[T], err error) (next Thenable[T], outErr error) {
	defer func() {
		if e := panicToError(recover()); e != nil {
			outErr = e
		}
	}()
	next = body(err)
	return
}

// RecoverWithGuarantee is the Guarantee-returning variant of Recover: body
// always runs on rejection (a Guarantee cannot forward an unrecovered
// error, so CatchPolicy is not consulted here), and the chain becomes
// infallible from this point on.
func RecoverWithGuarantee[T any](p Promise[T], body func(error) Guarantee[T], dispatcher ...Dispatcher) Guarantee[T] {
	d, seal := newPendingGuarantee[T]()

	p.Pipe(func(res Result[T]) {
		if res.IsFulfilled() {
			seal(res.Value())
			return
		}

		dispatcherFor(firstOrNil(dispatcher), defaultProcessingDispatcher).Schedule(func() {
			body(res.Err()).Pipe(seal)
		})
	})

	return d
}

// Ensure runs body on both the fulfilled and rejected paths, purely for its
// side effect, and always settles the downstream with the upstream's
// original Result.
func Ensure[T any](p Promise[T], body func(), dispatcher ...Dispatcher) Promise[T] {
	d, seal := newPendingPromise[T]()

	p.Pipe(func(res Result[T]) {
		dispatcherFor(firstOrNil(dispatcher), defaultTerminalDispatcher).Schedule(func() {
			body()
			seal(res)
		})
	})

	return d
}

// EnsureThen is Ensure's async-cleanup variant: body returns a
// Guarantee[Void] that the downstream waits for (without blocking a thread)
// before settling with the upstream's original Result.
func EnsureThen[T any](p Promise[T], body func() Guarantee[Void], dispatcher ...Dispatcher) Promise[T] {
	d, seal := newPendingPromise[T]()

	p.Pipe(func(res Result[T]) {
		dispatcherFor(firstOrNil(dispatcher), defaultTerminalDispatcher).Schedule(func() {
			body().Pipe(func(Void) {
				seal(res)
			})
		})
	})

	return d
}

// Cauterize terminates a chain that would otherwise end in an unhandled
// rejection: on rejection it delivers the error to the log sink as a
// Cauterized event instead of letting it vanish silently. On fulfillment it
// is a no-op besides settling the returned Finalizer.
func Cauterize[T any](p Promise[T]) *Finalizer {
	f, seal := newFinalizer()

	p.Pipe(func(res Result[T]) {
		if res.IsRejected() {
			logEvent(Event{Kind: Cauterized, Err: res.Err()})
		}
		seal()
	})

	return f
}

// CatchOption configures Catch and Recover.
type CatchOption func(*catchOptions)

type catchOptions struct {
	policy     CatchPolicy
	policySet  bool
	dispatcher Dispatcher
}

func (o *catchOptions) resolvedPolicy() CatchPolicy {
	if o.policySet {
		return o.policy
	}
	return defaultCatchPolicy()
}

func (o *catchOptions) dispatcherFn() Dispatcher {
	return dispatcherFor(o.dispatcher, defaultTerminalDispatcher)
}

// WithCatchPolicy overrides the default CatchPolicy for a single Catch or
// Recover call.
func WithCatchPolicy(p CatchPolicy) CatchOption {
	return func(o *catchOptions) {
		o.policy = p
		o.policySet = true
	}
}

// WithDispatcher overrides the default terminal Dispatcher for a single
// Catch or Recover call.
func WithDispatcher(d Dispatcher) CatchOption {
	return func(o *catchOptions) {
		o.dispatcher = d
	}
}

type resolvedCatchOptions struct {
	policy CatchPolicy
	disp   Dispatcher
}

func (r resolvedCatchOptions) dispatcher() Dispatcher {
	return r.disp
}

func resolveCatchOptions(opts []CatchOption) resolvedCatchOptions {
	o := &catchOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return resolvedCatchOptions{
		policy: o.resolvedPolicy(),
		disp:   o.dispatcherFn(),
	}
}
