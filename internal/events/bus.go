// Package events carries change notifications from the stores to their
// consumers. Every successful mutation publishes the new snapshot;
// subscribers receive copies, never handles into store internals.
package events

import (
	"sync"
	"time"
)

// Topic identifies the collection a change event belongs to.
type Topic string

const (
	TopicDestinations Topic = "destinations"
	TopicPackages     Topic = "packages"
	TopicDeals        Topic = "deals"
	TopicTestimonials Topic = "testimonials"
	TopicOrders       Topic = "orders"
	TopicCart         Topic = "cart"
	TopicAuth         Topic = "auth"
)

// Event is a single change notification.
type Event struct {
	Topic     Topic `json:"topic"`
	Payload   any   `json:"payload,omitempty"`
	Timestamp int64 `json:"timestamp"`
}

// Handler receives events. Handlers run synchronously on the mutating
// goroutine and must not block.
type Handler func(Event)

// Bus fans events out to registered handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers an event to every handler registered at call time.
func (b *Bus) Publish(topic Topic, payload any) {
	evt := Event{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}
