package promise

import "context"

// mainThreadKey is the context key MarkMainThread stores under.
type mainThreadKey struct{}

// MarkMainThread returns a context derived from ctx that WaitContext and
// WaitGuaranteeContext recognize as running on the host's main thread, so
// that a blocking wait through them fires the WaitOnMainThread log event. The core has no run-loop of its own
// (per spec.md's platform-bridge Non-goal); this only flags intent for
// callers that do.
func MarkMainThread(ctx context.Context) context.Context {
	return context.WithValue(ctx, mainThreadKey{}, true)
}

// IsMainThread reports whether ctx was derived from MarkMainThread.
func IsMainThread(ctx context.Context) bool {
	v, _ := ctx.Value(mainThreadKey{}).(bool)
	return v
}

// isMainThread is what the unadorned Wait on Promise/Guarantee consults. It
// has no context to inspect and always reports false, so Wait never fires
// WaitOnMainThread on its own; WaitContext reports on an explicit context.
func isMainThread() bool {
	return false
}

// WaitContext blocks like Promise.Wait, but fires the WaitOnMainThread log
// event when ctx is flagged via MarkMainThread, or returns early with
// ctx.Err() if ctx is cancelled before the promise settles.
func WaitContext[T any](ctx context.Context, p Promise[T]) (Result[T], error) {
	if IsMainThread(ctx) {
		logEvent(Event{Kind: WaitOnMainThread})
	}

	done := make(chan Result[T], 1)
	p.Pipe(func(r Result[T]) {
		done <- r
	})

	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		var zero Result[T]
		return zero, ctx.Err()
	}
}

// WaitGuaranteeContext is WaitContext's Guarantee counterpart.
func WaitGuaranteeContext[T any](ctx context.Context, g Guarantee[T]) (T, error) {
	if IsMainThread(ctx) {
		logEvent(Event{Kind: WaitOnMainThread})
	}

	done := make(chan T, 1)
	g.Pipe(func(v T) {
		done <- v
	})

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
