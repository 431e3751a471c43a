package tracking

import "context"

// Sink receives consumed events on the worker side.
type Sink interface {
	Track(ctx context.Context, event *Event) error
}
