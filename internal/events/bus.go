package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Delivery is asynchronous: each
// subscriber receives events in publish order on its own goroutine.
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
	switch e := ev.(type) {
	case SessionStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case StreamStoppedEvent:
		event.Publish(b.dispatcher, e)
	case AudioLevelEvent:
		event.Publish(b.dispatcher, e)
	case PreviewStatusEvent:
		event.Publish(b.dispatcher, e)
	case NewBitrateEvent:
		event.Publish(b.dispatcher, e)
	case TookPictureEvent:
		event.Publish(b.dispatcher, e)
	case AuthErrorEvent:
		event.Publish(b.dispatcher, e)
	case ConnectionFailedEvent:
		event.Publish(b.dispatcher, e)
	case CameraChangedEvent:
		event.Publish(b.dispatcher, e)
	case DeviceDiscoveryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a typed handler, e.g. func(StreamStoppedEvent).
// The handler's parameter type selects the events it receives. The returned
// func unsubscribes; unknown handler types get a no-op.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SessionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StreamStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AudioLevelEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PreviewStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NewBitrateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TookPictureEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AuthErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConnectionFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CameraChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceDiscoveryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
