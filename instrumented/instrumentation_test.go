package instrumented

import (
	"errors"
	"sync"
	"testing"

	"github.com/settld/promise"
)

func noopHandler(_ *Invocation) {}

func TestWrap_NoHandlers(t *testing.T) {
	i := NewInstrumentation()
	p := promise.Value(1)

	wrapped := Wrap(i, p)
	if wrapped != p {
		t.Fatalf("expected Wrap with no handlers to return the original promise unwrapped")
	}
}

func TestWrap_FiresOnSettlement(t *testing.T) {
	i := NewInstrumentation()

	var got *Invocation
	i.AddHandlers(func(inv *Invocation) { got = inv })

	p := Wrap(i, promise.Value(7))
	if res := p.Wait(); res.Value() != 7 {
		t.Fatalf("expected Wrap to forward the settled value unchanged, got %d", res.Value())
	}

	if got == nil {
		t.Fatalf("expected the handler to fire")
	}
	if got.Subject != "wrap" {
		t.Fatalf("expected subject %q, got %q", "wrap", got.Subject)
	}
	if got.UUID == "" {
		t.Fatalf("expected a non-empty UUID")
	}
}

type testHandler struct {
	sync.Mutex
	subjects []string
	uuids    map[string]bool
}

func newTestHandler() *testHandler {
	return &testHandler{uuids: make(map[string]bool)}
}

func (h *testHandler) Log(inv *Invocation) {
	h.Lock()
	defer h.Unlock()

	h.uuids[inv.UUID] = true
	h.subjects = append(h.subjects, inv.Subject)
}

func TestInstrumentedChain(t *testing.T) {
	i := NewInstrumentation()
	handler := newTestHandler()
	i.AddHandlers(handler.Log)

	p := New(i, func(r *promise.Resolver[int]) {
		r.Fulfill(42)
	})
	mapped := Map(i, p, func(v int) (int, error) { return v + 1, nil })
	recovered := Recover(i, mapped, func(error) promise.Thenable[int] {
		return promise.Value(0)
	})

	res := Wait(i, recovered)
	if res.Value() != 43 {
		t.Fatalf("expected 43, got %d", res.Value())
	}

	wantSubjects := []string{"new", "map", "recover", "wait"}
	handler.Lock()
	defer handler.Unlock()
	if len(handler.subjects) != len(wantSubjects) {
		t.Fatalf("expected subjects %v, got %v", wantSubjects, handler.subjects)
	}
	for idx, want := range wantSubjects {
		if handler.subjects[idx] != want {
			t.Fatalf("expected subjects %v, got %v", wantSubjects, handler.subjects)
		}
	}

	// new/map/recover each wrap a distinct downstream, so each gets its own
	// UUID; wait records the invocation of the final, already-instrumented
	// promise and mints its own UUID too, since wait has no delegate to
	// carry one on.
	if len(handler.uuids) != len(wantSubjects) {
		t.Fatalf("expected %d distinct UUIDs, got %d", len(wantSubjects), len(handler.uuids))
	}
}

func TestCatch_FiresOnHandledRejection(t *testing.T) {
	i := NewInstrumentation()

	var got *Invocation
	i.AddHandlers(func(inv *Invocation) { got = inv })

	wantErr := errors.New("boom")
	ran := false
	f := Catch(i, promise.Err[int](wantErr), func(err error) {
		ran = true
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected %v, got %v", wantErr, err)
		}
	})

	done := make(chan struct{})
	f.Finally(func() { close(done) })
	<-done

	if !ran {
		t.Fatalf("expected the catch body to run")
	}
	if got == nil || got.Subject != "catch" {
		t.Fatalf("expected a catch invocation to fire, got %v", got)
	}
}

func TestCatch_NoHandlersIsPassthrough(t *testing.T) {
	i := NewInstrumentation()

	ran := false
	f := Catch(i, promise.Err[int](errors.New("boom")), func(error) { ran = true })

	done := make(chan struct{})
	f.Finally(func() { close(done) })
	<-done

	if !ran {
		t.Fatalf("expected the catch body to run even with no handlers configured")
	}
}

func TestRecoverWithGuarantee_Instrumented(t *testing.T) {
	i := NewInstrumentation()

	var got *Invocation
	i.AddHandlers(func(inv *Invocation) { got = inv })

	g := RecoverWithGuarantee(i, promise.Err[int](errors.New("boom")), func(error) promise.Guarantee[int] {
		return promise.GuaranteeValue(9)
	})

	if v := WaitGuarantee(i, g); v != 9 {
		t.Fatalf("expected 9, got %d", v)
	}
	if got == nil || got.Subject != "recover_with_guarantee" {
		t.Fatalf("expected a recover_with_guarantee invocation, got %v", got)
	}
}

func TestDefaultInstrumentation(t *testing.T) {
	handler := newTestHandler()
	AddInstrumentationHandlers(handler.Log)
	defer RemoveInstrumentationHandlers()

	p := DefaultValue(5)
	res := DefaultWait(p)
	if res.Value() != 5 {
		t.Fatalf("expected 5, got %d", res.Value())
	}

	handler.Lock()
	defer handler.Unlock()
	wantSubjects := []string{"value", "wait"}
	if len(handler.subjects) != len(wantSubjects) {
		t.Fatalf("expected subjects %v, got %v", wantSubjects, handler.subjects)
	}
}

func TestRemoveInstrumentationHandlers(t *testing.T) {
	AddInstrumentationHandlers(noopHandler)
	if len(defaultInstrumentation.Handlers()) == 0 {
		t.Fatalf("expected the handler to be registered")
	}

	RemoveInstrumentationHandlers()
	if len(defaultInstrumentation.Handlers()) != 0 {
		t.Fatalf("expected RemoveInstrumentationHandlers to clear all handlers")
	}
}
