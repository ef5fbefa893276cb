package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving audit events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, source, eventType string, payload []byte, metadata map[string]string) error

	// GetBySource retrieves all events caused by saves of one page.
	GetBySource(ctx context.Context, source string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// PruneBefore deletes events older than cutoff and returns how many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
