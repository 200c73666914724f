package instrumented

import (
	"time"

	"github.com/settld/promise"
)

// wrap instruments delegate with i: every settlement of the returned
// Promise[T] fires subject through i's handlers, tagged with the caller
// skipFrames frames up and the elapsed time since wrap was entered. If i has
// no handlers, delegate is returned unwrapped at no extra cost.
//
// Unlike the teacher's method-chaining instrumentedPromise, each wrap call
// mints its own UUID rather than threading one UUID through an entire
// chain: the generic operators are free functions returning a fresh
// Promise[T] at every step, so there is no single long-lived receiver object
// to hang a chain-wide UUID off of.
func wrap[T any](i *Instrumentation, subject string, delegate promise.Promise[T], skipFrames int) promise.Promise[T] {
	if len(i.Handlers()) == 0 {
		return delegate
	}

	uuid := newUUID()
	callerInfo := getCallerInfo(skipFrames)
	startTime := time.Now()

	return promise.Tap(delegate, func(res promise.Result[T]) {
		i.fire(&Invocation{
			UUID:    uuid,
			Promise: delegate,
			Subject: subject,
			SubjectInfo: SubjectInfo{
				Subject:      subject,
				ReturnValues: res,
			},
			CallerInfo: callerInfo,
			StartTime:  startTime,
			EndTime:    time.Now(),
		})
	}, promise.InlineDispatcher)
}

// Wrap instruments an existing Promise[T] with i, using the default
// instrumentation's pass-through behavior: if i has no handlers configured,
// delegate is returned unchanged.
func Wrap[T any](i *Instrumentation, delegate promise.Promise[T]) promise.Promise[T] {
	return wrap(i, "wrap", delegate, 3)
}

// New creates a Promise[T] via promise.New and instruments it with i.
func New[T any](i *Instrumentation, executor func(r *promise.Resolver[T]), dispatcher ...promise.Dispatcher) promise.Promise[T] {
	return wrap(i, "new", promise.New(executor, dispatcher...), 3)
}

// Go creates a Promise[T] via promise.Go and instruments it with i.
func Go[T any](i *Instrumentation, fn func() (T, error)) promise.Promise[T] {
	return wrap(i, "go", promise.Go(fn), 3)
}

// Value creates an already-fulfilled Promise[T] via promise.Value and
// instruments it with i.
func Value[T any](i *Instrumentation, v T) promise.Promise[T] {
	return wrap(i, "value", promise.Value(v), 3)
}

// Err creates an already-rejected Promise[T] via promise.Err and instruments
// it with i.
func Err[T any](i *Instrumentation, err error) promise.Promise[T] {
	return wrap(i, "err", promise.Err[T](err), 3)
}

// Then runs promise.Then and instruments its downstream with i.
func Then[T, U any](i *Instrumentation, p promise.Promise[T], body func(T) promise.Thenable[U], dispatcher ...promise.Dispatcher) promise.Promise[U] {
	return wrap(i, "then", promise.Then(p, body, dispatcher...), 3)
}

// Map runs promise.Map and instruments its downstream with i.
func Map[T, U any](i *Instrumentation, p promise.Promise[T], body func(T) (U, error), dispatcher ...promise.Dispatcher) promise.Promise[U] {
	return wrap(i, "map", promise.Map(p, body, dispatcher...), 3)
}

// CompactMap runs promise.CompactMap and instruments its downstream with i.
func CompactMap[T, U any](i *Instrumentation, p promise.Promise[T], body func(T) (U, bool, error), dispatcher ...promise.Dispatcher) promise.Promise[U] {
	return wrap(i, "compact_map", promise.CompactMap(p, body, dispatcher...), 3)
}

// Done runs promise.Done and instruments its downstream with i.
func Done[T any](i *Instrumentation, p promise.Promise[T], body func(T) error, dispatcher ...promise.Dispatcher) promise.Promise[promise.Void] {
	return wrap(i, "done", promise.Done(p, body, dispatcher...), 3)
}

// Get runs promise.Get and instruments its downstream with i.
func Get[T any](i *Instrumentation, p promise.Promise[T], body func(T) error, dispatcher ...promise.Dispatcher) promise.Promise[T] {
	return wrap(i, "get", promise.Get(p, body, dispatcher...), 3)
}

// Tap runs promise.Tap and instruments its downstream with i.
func Tap[T any](i *Instrumentation, p promise.Promise[T], body func(promise.Result[T]), dispatcher ...promise.Dispatcher) promise.Promise[T] {
	return wrap(i, "tap", promise.Tap(p, body, dispatcher...), 3)
}

// AsVoid runs promise.AsVoid and instruments its downstream with i.
func AsVoid[T any](i *Instrumentation, p promise.Promise[T]) promise.Promise[promise.Void] {
	return wrap(i, "as_void", promise.AsVoid(p), 3)
}

// Catch runs promise.Catch, instrumenting body's invocation with i. Unlike
// the operators above, Catch returns a *promise.Finalizer rather than a
// Promise[T], so its invocation is recorded directly rather than via wrap's
// Tap-based settlement hook.
func Catch[T any](i *Instrumentation, p promise.Promise[T], body func(error), opts ...promise.CatchOption) *promise.Finalizer {
	if len(i.Handlers()) == 0 {
		return promise.Catch(p, body, opts...)
	}

	callerInfo := getCallerInfo(2)

	return promise.Catch(p, func(err error) {
		startTime := time.Now()
		body(err)
		i.fire(&Invocation{
			UUID:    newUUID(),
			Promise: p,
			Subject: "catch",
			SubjectInfo: SubjectInfo{
				Subject:   "catch",
				Arguments: err,
			},
			CallerInfo: callerInfo,
			StartTime:  startTime,
			EndTime:    time.Now(),
		})
	}, opts...)
}

// Recover runs promise.Recover and instruments its downstream with i.
func Recover[T any](i *Instrumentation, p promise.Promise[T], body func(error) promise.Thenable[T], opts ...promise.CatchOption) promise.Promise[T] {
	return wrap(i, "recover", promise.Recover(p, body, opts...), 3)
}

// RecoverWithGuarantee runs promise.RecoverWithGuarantee, instrumenting its
// resulting Guarantee[T]'s settlement with i.
func RecoverWithGuarantee[T any](i *Instrumentation, p promise.Promise[T], body func(error) promise.Guarantee[T], dispatcher ...promise.Dispatcher) promise.Guarantee[T] {
	g := promise.RecoverWithGuarantee(p, body, dispatcher...)
	if len(i.Handlers()) == 0 {
		return g
	}

	return wrapGuarantee(i, "recover_with_guarantee", g, 2)
}

// wrapGuarantee instruments delegate's settlement with i, firing subject
// once it resolves. Guarantee[T] has no Tap analog and its Thenable
// adaptation is unexported, so this rebuilds the forwarding relationship
// with NewGuarantee directly instead.
func wrapGuarantee[T any](i *Instrumentation, subject string, delegate promise.Guarantee[T], skipFrames int) promise.Guarantee[T] {
	if len(i.Handlers()) == 0 {
		return delegate
	}

	uuid := newUUID()
	callerInfo := getCallerInfo(skipFrames + 1)
	startTime := time.Now()

	return promise.NewGuarantee(func(r *promise.GuaranteeResolver[T]) {
		delegate.Pipe(func(v T) {
			i.fire(&Invocation{
				UUID:    uuid,
				Promise: delegate,
				Subject: subject,
				SubjectInfo: SubjectInfo{
					Subject:      subject,
					ReturnValues: v,
				},
				CallerInfo: callerInfo,
				StartTime:  startTime,
				EndTime:    time.Now(),
			})
			r.Resolve(v)
		})
	}, promise.InlineDispatcher)
}

// Ensure runs promise.Ensure and instruments its downstream with i.
func Ensure[T any](i *Instrumentation, p promise.Promise[T], body func(), dispatcher ...promise.Dispatcher) promise.Promise[T] {
	return wrap(i, "ensure", promise.Ensure(p, body, dispatcher...), 3)
}

// EnsureThen runs promise.EnsureThen and instruments its downstream with i.
func EnsureThen[T any](i *Instrumentation, p promise.Promise[T], body func() promise.Guarantee[promise.Void], dispatcher ...promise.Dispatcher) promise.Promise[T] {
	return wrap(i, "ensure_then", promise.EnsureThen(p, body, dispatcher...), 3)
}

// Wait runs p.Wait and instruments the invocation with i.
func Wait[T any](i *Instrumentation, p promise.Promise[T]) promise.Result[T] {
	if len(i.Handlers()) == 0 {
		return p.Wait()
	}

	startTime := time.Now()
	callerInfo := getCallerInfo(2)
	res := p.Wait()

	i.fire(&Invocation{
		UUID:    newUUID(),
		Promise: p,
		Subject: "wait",
		SubjectInfo: SubjectInfo{
			Subject:      "wait",
			ReturnValues: res,
		},
		CallerInfo: callerInfo,
		StartTime:  startTime,
		EndTime:    time.Now(),
	})

	return res
}

// WaitGuarantee runs g.Wait and instruments the invocation with i.
func WaitGuarantee[T any](i *Instrumentation, g promise.Guarantee[T]) T {
	if len(i.Handlers()) == 0 {
		return g.Wait()
	}

	startTime := time.Now()
	callerInfo := getCallerInfo(2)
	v := g.Wait()

	i.fire(&Invocation{
		UUID:    newUUID(),
		Promise: g,
		Subject: "wait_guarantee",
		SubjectInfo: SubjectInfo{
			Subject:      "wait_guarantee",
			ReturnValues: v,
		},
		CallerInfo: callerInfo,
		StartTime:  startTime,
		EndTime:    time.Now(),
	})

	return v
}

// The funcs below mirror their *Instrumentation-taking counterparts above,
// bound to the package-level default Instrumentation, for callers who
// configure instrumentation globally via AddInstrumentationHandlers instead
// of threading an *Instrumentation through their own code.

// DefaultWrap instruments delegate with the default instrumentation.
func DefaultWrap[T any](delegate promise.Promise[T]) promise.Promise[T] {
	return Wrap(defaultInstrumentation, delegate)
}

// DefaultNew creates a Promise[T] via promise.New, instrumented with the
// default instrumentation.
func DefaultNew[T any](executor func(r *promise.Resolver[T]), dispatcher ...promise.Dispatcher) promise.Promise[T] {
	return New(defaultInstrumentation, executor, dispatcher...)
}

// DefaultGo creates a Promise[T] via promise.Go, instrumented with the
// default instrumentation.
func DefaultGo[T any](fn func() (T, error)) promise.Promise[T] {
	return Go(defaultInstrumentation, fn)
}

// DefaultValue creates an already-fulfilled Promise[T], instrumented with
// the default instrumentation.
func DefaultValue[T any](v T) promise.Promise[T] {
	return Value(defaultInstrumentation, v)
}

// DefaultErr creates an already-rejected Promise[T], instrumented with the
// default instrumentation.
func DefaultErr[T any](err error) promise.Promise[T] {
	return Err[T](defaultInstrumentation, err)
}

// DefaultWait runs p.Wait, instrumented with the default instrumentation.
func DefaultWait[T any](p promise.Promise[T]) promise.Result[T] {
	return Wait(defaultInstrumentation, p)
}
