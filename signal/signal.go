// Package signal provides typed event sources with explicit subscription
// handles. Components expose a Source per notification kind and collaborators
// subscribe at construction time; there is no global dispatch.
//
// Sources are not safe for concurrent use. The game core runs on a single
// logical thread driven by an external tick, so no locking is needed.
package signal

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Source is an ordered registry of callbacks for one event type.
// The zero value is ready to use.
type Source[T any] struct {
	subs []subscriber[T]
	next int
}

// Handle identifies one subscription. Release it when the subscriber goes
// away; releasing twice is a no-op.
type Handle struct {
	release func()
}

// Release removes the subscription from its source.
func (h Handle) Release() {
	if h.release != nil {
		h.release()
	}
}

// Subscribe registers fn to be called on every Emit, in subscription order.
func (s *Source[T]) Subscribe(fn func(T)) Handle {
	if fn == nil {
		return Handle{}
	}
	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})

	released := false
	return Handle{release: func() {
		if released {
			return
		}
		released = true
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}}
}

// Emit calls every subscriber with v in subscription order. Subscribers
// added or released during Emit take effect on the next Emit.
func (s *Source[T]) Emit(v T) {
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len reports the number of active subscriptions.
func (s *Source[T]) Len() int {
	return len(s.subs)
}
