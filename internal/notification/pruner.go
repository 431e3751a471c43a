package notification

import (
	"context"
	"time"
)

// Pruner removes expired and exhausted records across every visitor,
// reporting how many were dropped. Lazy eviction during selection is the
// correctness mechanism; pruning only reclaims space held by visitors
// who stopped coming back.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}
