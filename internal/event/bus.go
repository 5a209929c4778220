// Package event provides the synchronous event bus that game components
// publish to. A bus is created per server and injected into every component
// that needs to publish or listen; there is no package-level dispatcher.
package event

import (
	"sync"
	"sync/atomic"
)

// Publisher is the narrow contract handed to event producers.
type Publisher interface {
	Publish(ev any)
}

type handler struct {
	id uint64
	fn func(ev any)
}

// Bus dispatches events to subscribers in subscription order.
// Handlers run on the publishing goroutine; for game events that is the game loop.
type Bus struct {
	mu       sync.RWMutex
	handlers []handler
	nextID   atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers ev to every handler subscribed to its type.
// Handlers may subscribe, unsubscribe or publish re-entrantly.
func (b *Bus) Publish(ev any) {
	b.mu.RLock()
	snapshot := make([]handler, len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.RUnlock()

	for _, h := range snapshot {
		h.fn(ev)
	}
}

// HandlerCount returns the number of live subscriptions.
func (b *Bus) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

func (b *Bus) add(fn func(ev any)) func() {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.handlers = append(b.handlers, handler{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Subscribe registers fn for events of type E and returns an idempotent
// unsubscribe func.
func Subscribe[E any](b *Bus, fn func(E)) (unsubscribe func()) {
	return b.add(func(ev any) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	})
}
