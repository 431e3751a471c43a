package tracking

import (
	"context"

	"go.uber.org/zap"
)

// Noop is a sink that only logs events. Used when no collection endpoint
// is configured.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a logging-only sink.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) Track(_ context.Context, event *Event) error {
	n.logger.Info("event received",
		zap.String("event", event.Name),
		zap.String("visitorId", event.VisitorID),
		zap.String("url", event.URL),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

var _ Sink = (*Noop)(nil)
