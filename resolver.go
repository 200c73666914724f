package promise

import (
	"runtime"

	"github.com/settld/promise/internal/box"
)

// Resolver is the write-capability handle for a pending Promise[T]. It is
// the only path through which a Promise's Box can be settled externally.
type Resolver[T any] struct {
	b *box.Box[Result[T]]
}

func newResolver[T any](b *box.Box[Result[T]]) *Resolver[T] {
	r := &Resolver[T]{b: b}
	runtime.SetFinalizer(r, func(r *Resolver[T]) {
		if !r.b.IsResolved() {
			logEvent(Event{Kind: PendingPromiseDeallocated})
		}
	})
	return r
}

// Fulfill settles the promise as fulfilled with val. A second call, or a
// call after Reject/Resolve already settled the promise, is a no-op.
func (r *Resolver[T]) Fulfill(val T) {
	r.b.Seal(Fulfilled(val))
}

// Reject settles the promise as rejected with err. A second call, or a call
// after Fulfill/Resolve already settled the promise, is a no-op.
func (r *Resolver[T]) Reject(err error) {
	r.b.Seal(Rejected[T](err))
}

// Resolve settles the promise with res directly.
func (r *Resolver[T]) Resolve(res Result[T]) {
	r.b.Seal(res)
}

// CallbackValErr adapts the legacy (value, error) calling convention: if err
// is non-nil the promise rejects with it, otherwise it fulfills with val.
func (r *Resolver[T]) CallbackValErr(val T, err error) {
	if err != nil {
		r.Reject(err)
		return
	}
	r.Fulfill(val)
}

// CallbackErrVal adapts the legacy (error, value) calling convention. If
// neither an error nor (via hasVal) a value was supplied, the promise
// rejects with ErrInvalidCallingConvention.
func (r *Resolver[T]) CallbackErrVal(err error, val T, hasVal bool) {
	switch {
	case err != nil:
		r.Reject(err)
	case hasVal:
		r.Fulfill(val)
	default:
		r.Reject(ErrInvalidCallingConvention)
	}
}

// GuaranteeResolver is the write-capability handle for a pending
// Guarantee[T]. Unlike Resolver, it has no Reject: a Guarantee cannot fail.
type GuaranteeResolver[T any] struct {
	b *box.Box[T]
}

func newGuaranteeResolver[T any](b *box.Box[T]) *GuaranteeResolver[T] {
	r := &GuaranteeResolver[T]{b: b}
	runtime.SetFinalizer(r, func(r *GuaranteeResolver[T]) {
		if !r.b.IsResolved() {
			logEvent(Event{Kind: PendingGuaranteeDeallocated})
		}
	})
	return r
}

// Resolve settles the guarantee with val.
func (r *GuaranteeResolver[T]) Resolve(val T) {
	r.b.Seal(val)
}
