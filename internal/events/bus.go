package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Delivery is asynchronous: each
// subscriber receives events in publish order on its own goroutine.
// A nil *Bus drops every event.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case MonitorStartedEvent:
		event.Publish(b.dispatcher, e)
	case FrameSampledEvent:
		event.Publish(b.dispatcher, e)
	case GeometryChangedEvent:
		event.Publish(b.dispatcher, e)
	case StaleChangedEvent:
		event.Publish(b.dispatcher, e)
	case CycleErrorEvent:
		event.Publish(b.dispatcher, e)
	case CaptureCompletedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for events of type T and returns the
// unsubscribe function.
//
//	unsub := events.Subscribe(bus, func(e events.StaleChangedEvent) { ... })
func Subscribe[T Event](b *Bus, handler func(T)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, handler)
}

// Close stops delivery to every subscriber.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.dispatcher.Close()
}
