// Package throttle rate-limits remote notification fetches using a
// persisted per-visitor timestamp. The marker lives outside the record
// store and survives both logout and process restarts.
package throttle

import (
	"context"
	"time"
)

// DefaultWindow is the minimum interval between remote fetches.
const DefaultWindow = time.Hour

// Store persists the last-fetch marker per visitor. LastFetch reports
// (zero, false, nil) when no marker exists yet.
type Store interface {
	LastFetch(ctx context.Context, visitorID string) (time.Time, bool, error)
	SetLastFetch(ctx context.Context, visitorID string, t time.Time) error
}

// Throttle gates remote fetches behind a fixed window.
type Throttle struct {
	store  Store
	window time.Duration
}

// New creates a throttle. A non-positive window falls back to
// DefaultWindow.
func New(store Store, window time.Duration) *Throttle {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Throttle{
		store:  store,
		window: window,
	}
}

// ShouldFetch reports whether a remote fetch may run at now. The very
// first call for a visitor persists now as the baseline and allows the
// fetch. Afterwards a fetch is allowed when bypass is set or the window
// has elapsed since the last recorded fetch.
func (t *Throttle) ShouldFetch(ctx context.Context, visitorID string, now time.Time, bypass bool) (bool, error) {
	last, ok, err := t.store.LastFetch(ctx, visitorID)
	if err != nil {
		return false, err
	}

	if !ok {
		if err := t.store.SetLastFetch(ctx, visitorID, now); err != nil {
			return false, err
		}

		return true, nil
	}

	if bypass {
		return true, nil
	}

	return now.Sub(last) >= t.window, nil
}

// MarkFetched slides the window forward after a completed fetch. Bypassed
// fetches are not marked, so QA previews never starve regular traffic.
func (t *Throttle) MarkFetched(ctx context.Context, visitorID string, now time.Time) error {
	return t.store.SetLastFetch(ctx, visitorID, now)
}
