package events

import "testing"

func TestBusDeliversToSubscribersAndHandlers(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	var handled []EventType
	bus.Handle(func(evt Event) { handled = append(handled, evt.Type) })

	bus.Publish(Event{Type: EventModelRequest, Round: 1})
	bus.Publish(Event{Type: EventTurnCompleted, Round: 1})

	if got := (<-ch).Type; got != EventModelRequest {
		t.Fatalf("first event = %s", got)
	}
	if got := (<-ch).Type; got != EventTurnCompleted {
		t.Fatalf("second event = %s", got)
	}
	if len(handled) != 2 || handled[0] != EventModelRequest || handled[1] != EventTurnCompleted {
		t.Fatalf("handled = %v", handled)
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	for i := 0; i < 100; i++ {
		bus.Publish(Event{Type: EventToolStarted, Round: i})
	}
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered = %d, want %d", got, cap(ch))
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Close()
	bus.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("subscriber channel should be closed")
	}
	bus.Publish(Event{Type: EventTurnFailed})
	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribe after close should return a closed channel")
	}

	var nilBus *Bus
	nilBus.Publish(Event{Type: EventTurnFailed})
}
