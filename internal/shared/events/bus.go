package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler consumes domain events. Handle must be idempotent: the bus
// gives no delivery guarantee stronger than at-least-once within a
// process lifetime.
type Handler interface {
	Handles() []string
	Handle(event Event) error
}

// Bus fans domain events out to subscribed handlers, synchronously and
// in registration order. A failing handler is logged and skipped so one
// broken subscriber cannot block the others.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]Handler),
		logger: logger,
	}
}

// Register subscribes a handler to every event type it reports.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.subs[eventType] = append(b.subs[eventType], handler)
	}
}

// Publish delivers the event to its subscribers on the calling
// goroutine. Events without subscribers are dropped silently.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.subs[event.EventType()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}
