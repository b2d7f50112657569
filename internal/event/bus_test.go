package event

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestEmitOrder(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var order []int
	bus.Subscribe("ping", func(Fields) { order = append(order, 1) })
	bus.Subscribe("ping", func(Fields) { order = append(order, 2) })
	bus.Subscribe("ping", func(Fields) { order = append(order, 3) })

	bus.Emit("ping", nil)

	if len(order) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("delivery %d out of order: got %d", i, v)
		}
	}
}

func TestEmitPanicIsolation(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var first, third bool
	bus.Subscribe("boom", func(Fields) { first = true })
	bus.Subscribe("boom", func(Fields) { panic("subscriber failure") })
	bus.Subscribe("boom", func(Fields) { third = true })

	defer func() {
		if rec := recover(); rec != nil {
			t.Fatalf("Emit propagated a subscriber panic: %v", rec)
		}
	}()
	bus.Emit("boom", nil)

	if !first {
		t.Error("first subscriber was not invoked")
	}
	if !third {
		t.Error("third subscriber was not invoked after panicking one")
	}
}

func TestEmitNoSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	bus.Emit("nobody-home", Fields{"x": 1})
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var count int
	sub := bus.Subscribe("tick", func(Fields) { count++ })
	keep := bus.Subscribe("tick", func(Fields) { count += 10 })

	bus.Unsubscribe(sub)
	bus.Emit("tick", nil)

	if count != 10 {
		t.Errorf("expected only remaining subscriber to run, count=%d", count)
	}

	// Unknown handle is a no-op
	bus.Unsubscribe(sub)
	bus.Unsubscribe(Subscription{name: "other", id: 99})

	bus.Unsubscribe(keep)
	bus.Emit("tick", nil)
	if count != 10 {
		t.Errorf("unsubscribed handler still ran, count=%d", count)
	}
}

func TestFieldsDelivered(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got Fields
	bus.Subscribe("data", func(f Fields) { got = f })
	bus.Emit("data", Fields{"percent": 42.0, "count": 7})

	if got["percent"] != 42.0 || got["count"] != 7 {
		t.Errorf("unexpected fields: %v", got)
	}
}
