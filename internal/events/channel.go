package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for select-loop
// consumers. Events are dropped when ch is full so a slow reader never
// stalls the publisher.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeAll forwards every session and device event into ch. The
// returned func removes all subscriptions.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubscribers := []func(){
		SubscribeToChannel[SessionStateChangedEvent](bus, ch),
		SubscribeToChannel[StreamStoppedEvent](bus, ch),
		SubscribeToChannel[AudioLevelEvent](bus, ch),
		SubscribeToChannel[PreviewStatusEvent](bus, ch),
		SubscribeToChannel[NewBitrateEvent](bus, ch),
		SubscribeToChannel[TookPictureEvent](bus, ch),
		SubscribeToChannel[AuthErrorEvent](bus, ch),
		SubscribeToChannel[ConnectionFailedEvent](bus, ch),
		SubscribeToChannel[CameraChangedEvent](bus, ch),
		SubscribeToChannel[DeviceDiscoveryEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubscribers {
			unsub()
		}
	}
}
