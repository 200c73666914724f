package promise

import (
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestWhenAllFulfilled_Empty(t *testing.T) {
	p := WhenAllFulfilled[int]()
	res := p.Wait()
	if res.IsRejected() || len(res.Value()) != 0 {
		t.Fatalf("expected an empty fulfilled slice, got %v", res)
	}
}

func TestWhenAllFulfilled_PreservesInputOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := WhenAllFulfilled(Go(func() (int, error) { return 1, nil }),
		Go(func() (int, error) { return 2, nil }),
		Go(func() (int, error) { return 3, nil }))

	res := p.Wait()
	if res.IsRejected() {
		t.Fatalf("unexpected rejection: %v", res.Err())
	}
	want := []int{1, 2, 3}
	for i, v := range want {
		if res.Value()[i] != v {
			t.Fatalf("expected input order %v, got %v", want, res.Value())
		}
	}
}

func TestWhenAllFulfilled_FirstRejectionWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("boom")
	p := WhenAllFulfilled(Value(1), Err[int](wantErr), Value(3))

	res := p.Wait()
	if !errors.Is(res.Err(), wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, res.Err())
	}
}

func TestWhenAllResolved(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("boom")
	g := WhenAllResolved(Value(1), Err[int](wantErr))

	results := g.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Value() != 1 {
		t.Fatalf("expected first result to be fulfilled with 1, got %v", results[0])
	}
	if !errors.Is(results[1].Err(), wantErr) {
		t.Fatalf("expected second result to carry %v, got %v", wantErr, results[1].Err())
	}
}

func TestWhenAllResolved_Empty(t *testing.T) {
	g := WhenAllResolved[int]()
	if results := g.Wait(); len(results) != 0 {
		t.Fatalf("expected an empty slice, got %v", results)
	}
}

func TestRace_FirstSettlementWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	block := make(chan struct{})
	defer close(block)

	slow := New(func(r *Resolver[int]) {
		<-block
		r.Fulfill(0)
	})
	fast := Value(1)

	p := Race(slow, fast)
	if res := p.Wait(); res.Value() != 1 {
		t.Fatalf("expected the already-settled promise to win, got %d", res.Value())
	}
}

func TestRace_Empty(t *testing.T) {
	p := Race[int]()
	if res := p.Wait(); !errors.Is(res.Err(), ErrBadInput) {
		t.Fatalf("expected ErrBadInput, got %v", res.Err())
	}
}

func TestRaceFulfilled_FirstFulfillmentWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := RaceFulfilled(Err[int](errors.New("a")), Value(9), Err[int](errors.New("b")))
	if res := p.Wait(); res.Value() != 9 {
		t.Fatalf("expected 9, got %d", res.Value())
	}
}

func TestRaceFulfilled_AllRejectedIsNoWinner(t *testing.T) {
	defer goleak.VerifyNone(t)

	e1 := errors.New("a")
	e2 := errors.New("b")
	p := RaceFulfilled[int](Err[int](e1), Err[int](e2))

	res := p.Wait()
	if !errors.Is(res.Err(), ErrNoWinner) {
		t.Fatalf("expected ErrNoWinner, got %v", res.Err())
	}
	if !errors.Is(res.Err(), e1) || !errors.Is(res.Err(), e2) {
		t.Fatalf("expected NoWinner to carry both causes, got %v", res.Err())
	}
}

func TestRaceFulfilled_Empty(t *testing.T) {
	p := RaceFulfilled[int]()
	if res := p.Wait(); !errors.Is(res.Err(), ErrBadInput) {
		t.Fatalf("expected ErrBadInput, got %v", res.Err())
	}
}

func TestWhenAllFulfilled2(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := WhenAllFulfilled2(Value("a"), Value(1))
	res := p.Wait()
	if res.IsRejected() {
		t.Fatalf("unexpected rejection: %v", res.Err())
	}
	if res.Value().A != "a" || res.Value().B != 1 {
		t.Fatalf("unexpected tuple: %+v", res.Value())
	}
}

func TestWhenAllFulfilled3(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := WhenAllFulfilled3(Value("a"), Value(1), Value(true))
	res := p.Wait()
	if res.IsRejected() {
		t.Fatalf("unexpected rejection: %v", res.Err())
	}
	if res.Value().A != "a" || res.Value().B != 1 || !res.Value().C {
		t.Fatalf("unexpected tuple: %+v", res.Value())
	}
}
