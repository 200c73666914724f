package promise

import "sync"

// WhenAllFulfilled returns a Promise that fulfills with every input's value,
// in input order, once all of them have fulfilled — or rejects with the
// first rejection observed, ignoring every later settlement. An empty input
// fulfills immediately with an empty slice.
func WhenAllFulfilled[T any](promises ...Promise[T]) Promise[[]T] {
	if len(promises) == 0 {
		return Value([]T{})
	}

	d, seal := newPendingPromise[[]T]()

	var mu sync.Mutex
	values := make([]T, len(promises))
	remaining := len(promises)
	settled := false

	for i, p := range promises {
		i := i
		p.Pipe(func(res Result[T]) {
			mu.Lock()
			defer mu.Unlock()

			if settled {
				return
			}

			if res.IsRejected() {
				settled = true
				seal(Rejected[[]T](res.Err()))
				return
			}

			values[i] = res.Value()
			remaining--
			if remaining == 0 {
				settled = true
				seal(Fulfilled(values))
			}
		})
	}

	return d
}

// WhenAllResolved returns a Guarantee that, once every input has settled
// one way or the other, yields the per-input Result in input order. It
// never rejects.
func WhenAllResolved[T any](promises ...Promise[T]) Guarantee[[]Result[T]] {
	if len(promises) == 0 {
		return GuaranteeValue([]Result[T]{})
	}

	d, seal := newPendingGuarantee[[]Result[T]]()

	var mu sync.Mutex
	results := make([]Result[T], len(promises))
	remaining := len(promises)

	for i, p := range promises {
		i := i
		p.Pipe(func(res Result[T]) {
			mu.Lock()
			defer mu.Unlock()

			results[i] = res
			remaining--
			if remaining == 0 {
				seal(results)
			}
		})
	}

	return d
}

// Race returns a Promise that settles with the first settlement observed
// from any input, fulfillment or rejection alike; every later settlement is
// a no-op. An empty input rejects with ErrBadInput.
func Race[T any](promises ...Promise[T]) Promise[T] {
	if len(promises) == 0 {
		return Err[T](ErrBadInput)
	}

	d, seal := newPendingPromise[T]()

	for _, p := range promises {
		p.Pipe(seal)
	}

	return d
}

// RaceFulfilled returns a Promise that fulfills with the first fulfillment
// observed from any input. If every input rejects, it rejects with
// ErrNoWinner, wrapping every arm's rejection reason. An empty input
// rejects with ErrBadInput.
func RaceFulfilled[T any](promises ...Promise[T]) Promise[T] {
	if len(promises) == 0 {
		return Err[T](ErrBadInput)
	}

	d, seal := newPendingPromise[T]()

	var mu sync.Mutex
	errs := make([]error, len(promises))
	remaining := len(promises)
	settled := false

	for i, p := range promises {
		i := i
		p.Pipe(func(res Result[T]) {
			mu.Lock()
			defer mu.Unlock()

			if settled {
				return
			}

			if res.IsFulfilled() {
				settled = true
				seal(res)
				return
			}

			errs[i] = res.Err()
			remaining--
			if remaining == 0 {
				settled = true
				seal(Rejected[T](newNoWinnerError(errs...)))
			}
		})
	}

	return d
}

// WhenAllFulfilled2 is the two-promise tuple-arity convenience variant of
// WhenAllFulfilled.
func WhenAllFulfilled2[A, B any](pa Promise[A], pb Promise[B]) Promise[struct {
	A A
	B B
}] {
	type pair = struct {
		A A
		B B
	}

	d, seal := newPendingPromise[pair]()

	var mu sync.Mutex
	var a A
	var b B
	remaining := 2
	settled := false

	finish := func() {
		remaining--
		if remaining == 0 {
			settled = true
			seal(Fulfilled(pair{A: a, B: b}))
		}
	}

	pa.Pipe(func(res Result[A]) {
		mu.Lock()
		defer mu.Unlock()
		if settled {
			return
		}
		if res.IsRejected() {
			settled = true
			seal(Rejected[pair](res.Err()))
			return
		}
		a = res.Value()
		finish()
	})

	pb.Pipe(func(res Result[B]) {
		mu.Lock()
		defer mu.Unlock()
		if settled {
			return
		}
		if res.IsRejected() {
			settled = true
			seal(Rejected[pair](res.Err()))
			return
		}
		b = res.Value()
		finish()
	})

	return d
}

// WhenAllFulfilled3 is the three-promise tuple-arity convenience variant of
// WhenAllFulfilled.
func WhenAllFulfilled3[A, B, C any](pa Promise[A], pb Promise[B], pc Promise[C]) Promise[struct {
	A A
	B B
	C C
}] {
	type triple = struct {
		A A
		B B
		C C
	}

	d, seal := newPendingPromise[triple]()

	var mu sync.Mutex
	var a A
	var b B
	var c C
	remaining := 3
	settled := false

	finish := func() {
		remaining--
		if remaining == 0 {
			settled = true
			seal(Fulfilled(triple{A: a, B: b, C: c}))
		}
	}

	pa.Pipe(func(res Result[A]) {
		mu.Lock()
		defer mu.Unlock()
		if settled {
			return
		}
		if res.IsRejected() {
			settled = true
			seal(Rejected[triple](res.Err()))
			return
		}
		a = res.Value()
		finish()
	})

	pb.Pipe(func(res Result[B]) {
		mu.Lock()
		defer mu.Unlock()
		if settled {
			return
		}
		if res.IsRejected() {
			settled = true
			seal(Rejected[triple](res.Err()))
			return
		}
		b = res.Value()
		finish()
	})

	pc.Pipe(func(res Result[C]) {
		mu.Lock()
		defer mu.Unlock()
		if settled {
			return
		}
		if res.IsRejected() {
			settled = true
			seal(Rejected[triple](res.Err()))
			return
		}
		c = res.Value()
		finish()
	})

	return d
}
