package box

import (
	"sync"
	"testing"
)

func TestBox_PipeBeforeSeal(t *testing.T) {
	b := New[int]()

	var got int
	b.Pipe(func(v int) {
		got = v
	})

	if got != 0 {
		t.Fatalf("handler ran before seal")
	}

	b.Seal(42)

	if got != 42 {
		t.Fatalf("expected handler to observe 42, got %d", got)
	}
}

func TestBox_PipeAfterSeal(t *testing.T) {
	b := New[int]()
	b.Seal(7)

	var got int
	b.Pipe(func(v int) {
		got = v
	})

	if got != 7 {
		t.Fatalf("expected handler to observe 7, got %d", got)
	}
}

func TestBox_SealIsIdempotent(t *testing.T) {
	b := New[int]()
	b.Seal(1)
	b.Seal(2)

	v, resolved := b.Snapshot()
	if !resolved || v != 1 {
		t.Fatalf("expected first seal to win with value 1, got %d (resolved=%v)", v, resolved)
	}
}

func TestBox_HandlerOrder(t *testing.T) {
	b := New[int]()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		b.Pipe(func(int) {
			order = append(order, i)
		})
	}

	b.Seal(0)

	for i, v := range order {
		if v != i {
			t.Fatalf("expected handlers to fire in registration order, got %v", order)
		}
	}
}

func TestBox_HandlerCanSealAnotherBox(t *testing.T) {
	a := New[int]()
	c := New[int]()

	a.Pipe(func(v int) {
		// Settling a second box from inside a's handler: Seal runs handlers
		// after releasing a's lock, so the nested Seal completes and c
		// observes the value. This does not pipe back into a itself.
		c.Seal(v + 1)
	})

	a.Seal(1)

	v, resolved := c.Snapshot()
	if !resolved || v != 2 {
		t.Fatalf("expected c to resolve to 2, got %d (resolved=%v)", v, resolved)
	}
}

func TestBox_ConcurrentSealRace(t *testing.T) {
	b := New[int]()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Seal(i)
		}()
	}
	wg.Wait()

	v, resolved := b.Snapshot()
	if !resolved || v < 1 || v > 50 {
		t.Fatalf("expected exactly one of the racing seals to win, got %d", v)
	}
}

func TestBox_Sealed(t *testing.T) {
	b := Sealed(9)

	if !b.IsResolved() {
		t.Fatalf("expected Sealed box to be resolved")
	}

	var got int
	b.Pipe(func(v int) { got = v })
	if got != 9 {
		t.Fatalf("expected 9, got %d", got)
	}
}
