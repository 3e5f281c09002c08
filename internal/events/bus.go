package events

import "slices"

// Subscription is returned by Bus.Subscribe; Cancel stops delivery.
type Subscription struct {
	cancelled bool
	cancel    func()
}

func (s *Subscription) Cancel() {
	if s == nil || s.cancelled {
		return
	}
	s.cancelled = true
	s.cancel()
}

type handler[E any] struct {
	sub *Subscription
	fn  func(E)
}

// Bus is a typed publish/subscribe channel. Delivery is synchronous on the
// publishing goroutine, in subscription order. Like observable.Value it is
// meant to be driven from a single Loop.
type Bus[E any] struct {
	handlers []*handler[E]
}

func NewBus[E any]() *Bus[E] {
	return &Bus[E]{}
}

func (b *Bus[E]) Subscribe(fn func(E)) *Subscription {
	sub := &Subscription{}
	h := &handler[E]{sub: sub, fn: fn}
	sub.cancel = func() {
		b.handlers = slices.DeleteFunc(b.handlers, func(x *handler[E]) bool { return x == h })
	}
	b.handlers = append(b.handlers, h)
	return sub
}

func (b *Bus[E]) Publish(e E) {
	for _, h := range slices.Clone(b.handlers) {
		if h.sub.cancelled {
			continue
		}
		h.fn(e)
	}
}

func (b *Bus[E]) Len() int {
	return len(b.handlers)
}
