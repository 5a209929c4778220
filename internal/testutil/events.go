package testutil

import (
	"sync"

	"github.com/udisondev/frontline/internal/event"
)

// EventRecorder записывает всё, что публикуется в шину.
type EventRecorder struct {
	mu     sync.Mutex
	events []any
}

// RecordEvents подписывает новый EventRecorder на bus.
func RecordEvents(bus *event.Bus) *EventRecorder {
	r := &EventRecorder{}
	event.Subscribe(bus, func(ev any) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	return r
}

// Publish implements event.Publisher, so the recorder can stand in for a bus.
func (r *EventRecorder) Publish(ev any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// All возвращает копию всех событий.
func (r *EventRecorder) All() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

// Reset очищает записанные события.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Events возвращает события типа E в порядке публикации.
func Events[E any](r *EventRecorder) []E {
	var out []E
	for _, ev := range r.All() {
		if e, ok := ev.(E); ok {
			out = append(out, e)
		}
	}
	return out
}
