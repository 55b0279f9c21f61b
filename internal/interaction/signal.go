package interaction

// Signal is a typed multi-subscriber event. Handlers run synchronously in
// subscription order.
type Signal[T any] struct {
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Handle removes a subscription.
type Handle struct {
	remove func()
}

// Remove unsubscribes the handler. Calling it more than once is harmless.
func (h Handle) Remove() {
	if h.remove != nil {
		h.remove()
	}
}

// Subscribe registers fn and returns a handle that removes it.
func (s *Signal[T]) Subscribe(fn func(T)) Handle {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})
	return Handle{remove: func() { s.unsubscribe(id) }}
}

func (s *Signal[T]) unsubscribe(id int) {
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Emit calls every handler subscribed at the time of the call.
func (s *Signal[T]) Emit(v T) {
	subs := s.subs
	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len returns the number of subscribers.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}
