package promise

import "github.com/settld/promise/internal/box"

// Finalizer is returned by Catch and Cauterize. It is not a Promise and
// cannot be chained further — only Finally may be attached to it — which
// enforces that Finally is a true terminal step: there is no way to turn a
// Finalizer back into something then/map/catch can act on.
type Finalizer struct {
	g *genericGuarantee[struct{}]
}

func newFinalizer() (*Finalizer, func()) {
	b := box.New[struct{}]()
	g := &genericGuarantee[struct{}]{b: b}
	return &Finalizer{g: g}, func() { b.Seal(struct{}{}) }
}

// Finally attaches body to run once the Finalizer's underlying Guarantee
// settles — i.e. once the catch handler it originated from has finished
// running, or was skipped because the error forwarded past it.
func (f *Finalizer) Finally(body func()) {
	f.g.Pipe(func(struct{}) { body() })
}
