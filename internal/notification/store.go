package notification

import (
	"context"
	"errors"
)

// ErrStorage wraps every failure of the backing record store. Callers
// treat it as fatal for the operation at hand, never for the page.
var ErrStorage = errors.New("record store failure")

// Store persists notification records for one visitor, keyed by CommID.
type Store interface {
	// Upsert inserts or replaces a record by its CommID atomically.
	Upsert(ctx context.Context, record *Record) error

	// All returns every stored record in no particular order. An empty
	// store yields an empty slice, not an error.
	All(ctx context.Context) ([]*Record, error)

	// Delete removes a record by CommID. Missing keys are a no-op.
	Delete(ctx context.Context, commID string) error

	// Teardown discards every record in this visitor's store. The next
	// store opened for the visitor starts empty.
	Teardown(ctx context.Context) error
}

// StoreProvider hands out per-visitor store views. Opening is cheap and
// lazy; a store torn down by logout is recreated on the next open.
type StoreProvider interface {
	Open(visitorID string) Store
}
