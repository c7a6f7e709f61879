package events

import "sync"

// Bus is a small pub-sub for turn progress events.
// Channel subscribers never block the publisher; events are dropped when a subscriber lags.
// Handlers run synchronously on the publishing goroutine, in registration order.
type Bus struct {
	mu       sync.Mutex
	subs     []chan Event
	handlers []func(Event)
	closed   bool
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, 32)
	b.subs = append(b.subs, ch)
	return ch
}

// Handle registers fn to be called for every published event.
func (b *Bus) Handle(fn func(Event)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	handlers := append([]func(Event){}, b.handlers...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(evt)
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.handlers = nil
	b.closed = true
}
