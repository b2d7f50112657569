package event

import (
	"sync"

	"github.com/rs/zerolog"
)

// Fields carries the payload of an event.
type Fields map[string]any

// Handler receives an event's fields.
type Handler func(Fields)

// Subscription identifies one registered handler so it can be removed later.
// Handlers themselves are not comparable, so Unsubscribe works on the handle.
type Subscription struct {
	name string
	id   uint64
}

type registration struct {
	id uint64
	fn Handler
}

// Bus is an in-process publish/subscribe dispatcher. Delivery is synchronous
// on the emitting goroutine, in registration order. A Bus is constructed and
// injected explicitly; there is no package-level instance.
type Bus struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]registration
}

// NewBus creates an empty dispatcher.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		logger: logger.With().Str("component", "event").Logger(),
		subs:   make(map[string][]registration),
	}
}

// Subscribe registers a handler for the named event and returns its handle.
func (b *Bus) Subscribe(name string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[name] = append(b.subs[name], registration{id: b.nextID, fn: fn})
	return Subscription{name: name, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. Unknown handles are a
// silent no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.subs[sub.name]
	for i, r := range regs {
		if r.id == sub.id {
			b.subs[sub.name] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Emit invokes every handler subscribed to name, in registration order.
// A handler that panics is recovered and logged; remaining handlers still
// run and Emit never panics itself. Emitting with no subscribers is a no-op.
func (b *Bus) Emit(name string, fields Fields) {
	b.mu.RLock()
	regs := make([]registration, len(b.subs[name]))
	copy(regs, b.subs[name])
	b.mu.RUnlock()

	for _, r := range regs {
		b.dispatch(name, r, fields)
	}
}

func (b *Bus) dispatch(name string, r registration, fields Fields) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error().
				Str("event", name).
				Interface("panic", rec).
				Msg("subscriber panicked")
		}
	}()
	r.fn(fields)
}
