package ack

import (
	"context"
	"errors"
)

// Acknowledgement event kinds. Delivered is emitted once per record when
// the fetcher stores it; shown and clicked come from presentation.
const (
	EventDelivered = "delivered"
	EventShown     = "shown"
	EventClicked   = "clicked"
)

// ErrSendFailed wraps transport failures and non-2xx responses from the
// acknowledgement endpoint.
var ErrSendFailed = errors.New("acknowledgement send failed")

// Ack is one acknowledgement on the wire.
type Ack struct {
	CDID   string `json:"CDID"`
	CommID string `json:"commId"`
	Event  string `json:"event"`
}

// Dispatcher sends a single best-effort acknowledgement. Failures are
// never retried; callers log and move on.
type Dispatcher interface {
	Acknowledge(ctx context.Context, a Ack) error
}

// ValidEvent reports whether event is a known acknowledgement kind.
func ValidEvent(event string) bool {
	switch event {
	case EventDelivered, EventShown, EventClicked:
		return true
	default:
		return false
	}
}
