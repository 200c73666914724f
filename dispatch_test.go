package promise

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestInlineDispatcher(t *testing.T) {
	ran := false
	InlineDispatcher.Schedule(func() { ran = true })

	if !ran {
		t.Fatalf("expected InlineDispatcher to run f synchronously")
	}
}

func TestAsyncDispatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	var wg sync.WaitGroup
	wg.Add(1)

	AsyncDispatcher.Schedule(func() { wg.Done() })

	wg.Wait()
}

func TestDispatcherFunc(t *testing.T) {
	calls := 0
	var d Dispatcher = DispatcherFunc(func(f func()) {
		calls++
		f()
	})

	ran := false
	d.Schedule(func() { ran = true })

	if !ran || calls != 1 {
		t.Fatalf("expected DispatcherFunc to delegate to its underlying func")
	}
}

func TestDispatcherFor(t *testing.T) {
	fallbackCalled := false
	fallback := func() Dispatcher {
		fallbackCalled = true
		return InlineDispatcher
	}

	if d := dispatcherFor(nil, fallback); d != InlineDispatcher || !fallbackCalled {
		t.Fatalf("expected dispatcherFor to consult fallback when none given")
	}

	fallbackCalled = false
	if d := dispatcherFor(AsyncDispatcher, fallback); d != AsyncDispatcher || fallbackCalled {
		t.Fatalf("expected dispatcherFor to prefer the explicit dispatcher")
	}
}
