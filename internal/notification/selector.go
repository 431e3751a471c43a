package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Selector decides which stored record, if any, to present for a page.
// Ineligible records are evicted lazily while scanning: selection already
// walks the full set, and the store stays small (bounded by the number of
// active campaigns), so no background pass is required for correctness.
type Selector struct {
	pick   Picker
	logger *zap.Logger
}

// NewSelector creates a selector using the given picking strategy.
func NewSelector(pick Picker, logger *zap.Logger) *Selector {
	if pick == nil {
		pick = NewRandomPicker()
	}

	return &Selector{
		pick:   pick,
		logger: logger,
	}
}

// Select scans the store, evicts expired and exhausted records, filters
// the remainder by URL scope, and picks one eligible record. It returns
// (nil, nil) when nothing is eligible. When the chosen record carries a
// display limit, its counter is incremented and persisted before it is
// returned; a persist failure is logged and the record is still returned,
// so a display may occasionally go uncounted.
func (s *Selector) Select(ctx context.Context, store Store, currentURL string, now time.Time) (*Record, error) {
	records, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	eligible := make([]*Record, 0, len(records))

	for _, record := range records {
		if record.Expired(now) || record.Exhausted() {
			s.evict(ctx, store, record.CommID)

			continue
		}

		if !record.InScope(currentURL) {
			continue
		}

		eligible = append(eligible, record)
	}

	if len(eligible) == 0 {
		return nil, nil
	}

	chosen := eligible[s.pick(len(eligible))]

	if chosen.DisplayLimit != nil {
		chosen.DisplayCount++

		if err := store.Upsert(ctx, chosen); err != nil {
			s.logger.Error("failed to persist display count",
				zap.String("commId", chosen.CommID),
				zap.Int("displayCount", chosen.DisplayCount),
				zap.Error(err),
			)
		}
	}

	return chosen, nil
}

func (s *Selector) evict(ctx context.Context, store Store, commID string) {
	if err := store.Delete(ctx, commID); err != nil {
		s.logger.Error("failed to evict record",
			zap.String("commId", commID),
			zap.Error(err),
		)
	}
}
