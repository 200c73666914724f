package promise

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Iterator is a pull-based source of promises, consumed serially by the
// bounded-concurrency aggregators below. Next returns ok == false once
// exhausted. Implementations must be safe for concurrent use: the
// aggregators guarantee at most one in-flight call to Next at a time, but
// which goroutine makes that call can vary as promises settle.
type Iterator[T any] interface {
	Next() (Promise[T], bool)
}

// sliceIterator adapts a pre-built slice of promises into an Iterator, for
// callers that already have every promise constructed up front and just
// want the running_count cap enforced — the generalization of the
// teacher's channel-fed Pool to a type-safe, already-materialized source.
type sliceIterator[T any] struct {
	mu   sync.Mutex
	rest []Promise[T]
}

// FromSlice returns an Iterator that yields each element of promises in
// order, once each.
func FromSlice[T any](promises []Promise[T]) Iterator[T] {
	return &sliceIterator[T]{rest: promises}
}

func (it *sliceIterator[T]) Next() (Promise[T], bool) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if len(it.rest) == 0 {
		var zero Promise[T]
		return zero, false
	}

	p := it.rest[0]
	it.rest = it.rest[1:]
	return p, true
}

// FuncIterator adapts a factory func into an Iterator: calling it returns
// (promise, true) to yield one more, or (nil, false) once exhausted. The
// func itself is responsible for being safe for concurrent use if the
// aggregator driving it may call it from more than one goroutine over its
// lifetime (never concurrently, only ever sequentially — see Iterator).
type FuncIterator[T any] func() (Promise[T], bool)

func (f FuncIterator[T]) Next() (Promise[T], bool) {
	return f()
}

// WhenFulfilled runs the promises pulled from it with at most concurrently
// running at any time — the bounded "when(…, concurrently: k)" variant —
// and fulfills with their values in pull (input) order once the iterator is
// exhausted and every started promise has settled, or rejects on the first
// rejection and stops dequeuing further work. concurrently must be ≥ 1.
func WhenFulfilled[T any](it Iterator[T], concurrently int) Promise[[]T] {
	if concurrently < 1 {
		panic("promise: WhenFulfilled requires concurrently >= 1")
	}

	d, seal := newPendingPromise[[]T]()

	a := &boundedAggregator[T]{
		it:           it,
		concurrently: concurrently,
		sem:          semaphore.NewWeighted(int64(concurrently)),
		onDone: func(values []T) {
			seal(Fulfilled(values))
		},
		onReject: func(err error) {
			seal(Rejected[[]T](err))
		},
	}
	a.pump()

	return d
}

// RaceBounded is the bounded "race(…, concurrently: k)" variant: it keeps
// at most concurrently promises pulled from it in flight and settles with
// the first settlement observed from any of them, fulfillment or rejection
// alike. Once a winner settles, dequeuing stops; promises already started
// are left to finish on their own but their settlement is ignored.
func RaceBounded[T any](it Iterator[T], concurrently int) Promise[T] {
	if concurrently < 1 {
		panic("promise: RaceBounded requires concurrently >= 1")
	}

	d, seal := newPendingPromise[T]()

	r := &boundedRace[T]{
		it:           it,
		concurrently: concurrently,
		sem:          semaphore.NewWeighted(int64(concurrently)),
		onSettled:    seal,
	}
	r.pump()

	return d
}

// boundedAggregator drives the dequeue/completion-callback loop spec.md's
// bounded when(…) aggregator describes: pull while running_count < k,
// attach a completion callback that decrements running_count and
// re-dequeues, test for termination after every settlement. A single
// in-flight pump per aggregator keeps iterator consumption effectively
// serial even though settlement callbacks may arrive on arbitrary
// goroutines; pump never holds the lock across a Pipe call, since an
// already-settled promise fires its callback synchronously and would
// otherwise re-enter the same, non-reentrant mutex.
type boundedAggregator[T any] struct {
	it           Iterator[T]
	concurrently int
	sem          *semaphore.Weighted
	onDone       func([]T)
	onReject     func(error)

	mu        sync.Mutex
	values    []T
	next      int
	running   int
	exhausted bool
	settled   bool
	pumping   bool
}

func (a *boundedAggregator[T]) pump() {
	a.mu.Lock()
	if a.pumping || a.settled {
		a.mu.Unlock()
		return
	}
	a.pumping = true
	a.mu.Unlock()

	for {
		if !a.sem.TryAcquire(1) {
			break
		}

		a.mu.Lock()
		if a.settled || a.exhausted {
			a.mu.Unlock()
			a.sem.Release(1)
			break
		}
		p, ok := a.it.Next()
		if !ok {
			a.exhausted = true
			a.mu.Unlock()
			a.sem.Release(1)
			break
		}
		idx := a.next
		a.next++
		a.running++
		a.mu.Unlock()

		p.Pipe(func(res Result[T]) { a.onSettle(idx, res) })
	}

	a.mu.Lock()
	finish := !a.settled && a.exhausted && a.running == 0
	if finish {
		a.settled = true
	}
	values := a.values
	a.pumping = false
	retry := !a.settled && !a.exhausted
	a.mu.Unlock()

	if finish {
		a.onDone(values)
		return
	}
	// A completion callback that arrived while this pump held the pumping
	// flag returned without dequeuing; pick up the slot it freed.
	if retry && a.sem.TryAcquire(1) {
		a.sem.Release(1)
		a.pump()
	}
}

// onSettle records res at idx — the position p was pulled from the iterator
// at, not the order it settled in — so WhenFulfilled's result preserves
// input order exactly like WhenAllFulfilled does for its fixed-arity
// counterpart (aggregate.go).
func (a *boundedAggregator[T]) onSettle(idx int, res Result[T]) {
	a.mu.Lock()
	if a.settled {
		a.mu.Unlock()
		a.sem.Release(1)
		return
	}
	a.running--

	if res.IsRejected() {
		a.settled = true
		a.mu.Unlock()
		a.sem.Release(1)
		a.onReject(res.Err())
		return
	}

	if idx >= len(a.values) {
		grown := make([]T, idx+1)
		copy(grown, a.values)
		a.values = grown
	}
	a.values[idx] = res.Value()
	a.mu.Unlock()
	a.sem.Release(1)

	a.pump()
}

// boundedRace is boundedAggregator's race-flavored sibling: it terminates
// on the first settlement of any kind rather than waiting for every
// started promise, but shares the same single-in-flight-pump discipline to
// avoid re-entering its own mutex from a synchronous Pipe callback.
type boundedRace[T any] struct {
	it           Iterator[T]
	concurrently int
	sem          *semaphore.Weighted
	onSettled    func(Result[T])

	mu        sync.Mutex
	exhausted bool
	settled   bool
	pumping   bool
}

func (r *boundedRace[T]) pump() {
	r.mu.Lock()
	if r.pumping || r.settled {
		r.mu.Unlock()
		return
	}
	r.pumping = true
	r.mu.Unlock()

	for {
		if !r.sem.TryAcquire(1) {
			break
		}

		r.mu.Lock()
		if r.settled || r.exhausted {
			r.mu.Unlock()
			r.sem.Release(1)
			break
		}
		p, ok := r.it.Next()
		if !ok {
			r.exhausted = true
			r.mu.Unlock()
			r.sem.Release(1)
			break
		}
		r.mu.Unlock()

		p.Pipe(r.onSettle)
	}

	r.mu.Lock()
	r.pumping = false
	r.mu.Unlock()
}

func (r *boundedRace[T]) onSettle(res Result[T]) {
	defer r.sem.Release(1)

	r.mu.Lock()
	if r.settled {
		r.mu.Unlock()
		return
	}
	r.settled = true
	r.mu.Unlock()

	r.onSettled(res)
}
