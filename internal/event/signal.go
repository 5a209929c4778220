package event

// Signal is an ordered list of callbacks owned by a single component.
// Unlike Bus it is not synchronized: owners mutate and emit it from the game
// loop only.
type Signal[T any] struct {
	next    int
	entries []signalEntry[T]
}

type signalEntry[T any] struct {
	id int
	fn func(T)
}

// Add registers fn and returns a func removing it. Removing twice is a no-op.
func (s *Signal[T]) Add(fn func(T)) (remove func()) {
	s.next++
	id := s.next
	s.entries = append(s.entries, signalEntry[T]{id: id, fn: fn})
	return func() { s.remove(id) }
}

func (s *Signal[T]) remove(id int) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Emit calls every callback registered before the call, in order.
func (s *Signal[T]) Emit(v T) {
	if len(s.entries) == 0 {
		return
	}
	snapshot := make([]signalEntry[T], len(s.entries))
	copy(snapshot, s.entries)
	for _, e := range snapshot {
		e.fn(v)
	}
}

// Len returns the number of callbacks.
func (s *Signal[T]) Len() int { return len(s.entries) }

// Clear drops every callback.
func (s *Signal[T]) Clear() { s.entries = nil }
