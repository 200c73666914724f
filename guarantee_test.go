package promise

import "testing"

func TestGuaranteeValue(t *testing.T) {
	g := GuaranteeValue(7)

	if g.IsPending() {
		t.Fatalf("expected an already-settled guarantee")
	}
	if v, ok := g.Result(); !ok || v != 7 {
		t.Fatalf("expected (7, true), got (%d, %v)", v, ok)
	}
	if g.Value() != 7 {
		t.Fatalf("expected 7, got %d", g.Value())
	}
}

func TestGuarantee_Pipe(t *testing.T) {
	g := NewGuarantee(func(r *GuaranteeResolver[int]) {
		r.Resolve(4)
	})

	done := make(chan int, 1)
	g.Pipe(func(v int) { done <- v })

	if v := <-done; v != 4 {
		t.Fatalf("expected 4, got %d", v)
	}
}

func TestGuarantee_AsThenable(t *testing.T) {
	g := GuaranteeValue(2).(*genericGuarantee[int])
	th := g.asThenable()

	var got Result[int]
	th.Pipe(func(r Result[int]) { got = r })

	if got.IsRejected() {
		t.Fatalf("expected a Guarantee's Thenable view to never reject")
	}
	if got.Value() != 2 {
		t.Fatalf("expected 2, got %d", got.Value())
	}
	if th.identity() != g.b {
		t.Fatalf("expected identity() to expose the underlying box for self-reference checks")
	}
}
