// Package hooks dispatches wiki lifecycle events to subscribed handlers.
package hooks

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/autopage/internal/logfields"
)

// EventStore defines the interface for persisting events.
// This is a subset of eventstore.Store.
type EventStore interface {
	Append(ctx context.Context, source, eventType string, payload []byte, metadata map[string]string) error
}

// Handler processes an Event; return error to signal failure.
type Handler func(ctx context.Context, e Event) error

// Bus is a simple synchronous pub/sub event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	eventStore  EventStore // optional event store for persistence
	logger      *slog.Logger
}

func NewBus() *Bus { return &Bus{subscribers: map[string][]Handler{}, logger: slog.Default()} }

// NewBusWithEventStore creates a bus that persists events to the store.
func NewBusWithEventStore(store EventStore) *Bus {
	b := NewBus()
	b.eventStore = store
	return b
}

// WithLogger sets the logger used for persistence failures.
func (b *Bus) WithLogger(logger *slog.Logger) *Bus {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Subscribe registers a handler for a given event name.
func (b *Bus) Subscribe(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[event] = append(b.subscribers[event], h)
	b.mu.Unlock()
}

// Publish delivers an event to all handlers synchronously, in subscription order.
// If an event store is configured, the event is persisted first; a persistence
// failure is logged and does not stop delivery. Every handler runs; their
// errors are joined.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b.eventStore != nil {
		b.persist(ctx, e)
	}

	b.mu.RLock()
	hs := append([]Handler(nil), b.subscribers[e.Name()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (b *Bus) persist(ctx context.Context, e Event) {
	record, err := AuditEvent(e)
	if err == nil {
		err = b.eventStore.Append(ctx, record.Source(), record.Type(), record.Payload(), nil)
	}
	if err != nil {
		b.logger.Warn("Failed to persist event",
			logfields.Event(e.Name()),
			logfields.SourcePage(e.SourcePage()),
			logfields.Error(err))
	}
}
