package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/engagekit/onsite/internal/notification"
	"github.com/engagekit/onsite/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const currentURL = "https://shop.example.com/home"

var now = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func firstPicker(_ int) int {
	return 0
}

func newVisitorStore(t *testing.T) notification.Store {
	t.Helper()

	return store.NewMemoryRecordStores().Open("visitor-1")
}

func seed(t *testing.T, s notification.Store, records ...*notification.Record) {
	t.Helper()

	for _, record := range records {
		require.NoError(t, s.Upsert(context.Background(), record))
	}
}

func TestSelector_Select(t *testing.T) {
	t.Run("returns nil when the store is empty", func(t *testing.T) {
		s := newVisitorStore(t)
		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("never selects expired records and evicts them", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s, &notification.Record{
			CommID:    "expired",
			ExpiresAt: now.Add(-time.Hour),
		})

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		assert.Nil(t, record)

		remaining, err := s.All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("never selects exhausted records and evicts them", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s, &notification.Record{
			CommID:       "exhausted",
			ExpiresAt:    now.Add(time.Hour),
			DisplayLimit: intPtr(2),
			DisplayCount: 2,
		})

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		assert.Nil(t, record)

		remaining, err := s.All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("excludes out-of-scope records without evicting them", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s, &notification.Record{
			CommID:    "checkout-only",
			ExpiresAt: now.Add(time.Hour),
			DisplayIn: "/checkout",
		})

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		assert.Nil(t, record)

		remaining, err := s.All(context.Background())
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("selects in-scope records on matching pages", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s, &notification.Record{
			CommID:    "checkout-only",
			ExpiresAt: now.Add(time.Hour),
			DisplayIn: "/checkout",
		})

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, "https://shop.example.com/checkout?step=2", now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "checkout-only", record.CommID)
	})

	t.Run("increments and persists the display count for limited records", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s, &notification.Record{
			CommID:       "limited",
			ExpiresAt:    now.Add(time.Hour),
			DisplayLimit: intPtr(3),
			DisplayCount: 1,
		})

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 2, record.DisplayCount)

		persisted, err := s.All(context.Background())
		require.NoError(t, err)
		require.Len(t, persisted, 1)
		assert.Equal(t, 2, persisted[0].DisplayCount)
	})

	t.Run("never mutates the count of records without a limit", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s, &notification.Record{
			CommID:           "unlimited",
			ExpiresAt:        now.Add(time.Hour),
			DisplayUnlimited: true,
		})

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 0, record.DisplayCount)

		persisted, err := s.All(context.Background())
		require.NoError(t, err)
		require.Len(t, persisted, 1)
		assert.Equal(t, 0, persisted[0].DisplayCount)
	})

	t.Run("picks the only eligible record among expired and exhausted ones", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s,
			&notification.Record{
				CommID:    "a-expired",
				ExpiresAt: now.Add(-24 * time.Hour),
			},
			&notification.Record{
				CommID:       "b-exhausted",
				ExpiresAt:    now.Add(time.Hour),
				DisplayLimit: intPtr(1),
				DisplayCount: 1,
			},
			&notification.Record{
				CommID:           "c-eligible",
				ExpiresAt:        now.Add(time.Hour),
				DisplayUnlimited: true,
				DisplayIn:        notification.ScopeAll,
			},
		)

		selector := notification.NewSelector(nil, zap.NewNop())

		record, err := selector.Select(context.Background(), s, "/home", now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "c-eligible", record.CommID)

		remaining, err := s.All(context.Background())
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "c-eligible", remaining[0].CommID)
	})

	t.Run("random picker returns one of the eligible records", func(t *testing.T) {
		s := newVisitorStore(t)
		seed(t, s,
			&notification.Record{CommID: "one", ExpiresAt: now.Add(time.Hour), DisplayUnlimited: true},
			&notification.Record{CommID: "two", ExpiresAt: now.Add(time.Hour), DisplayUnlimited: true},
			&notification.Record{CommID: "three", ExpiresAt: now.Add(time.Hour), DisplayUnlimited: true},
		)

		selector := notification.NewSelector(notification.NewRandomPicker(), zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Contains(t, []string{"one", "two", "three"}, record.CommID)
	})

	t.Run("returns a storage error when the scan fails", func(t *testing.T) {
		s := &mockStore{allErr: errMock}
		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		assert.Nil(t, record)
		assert.ErrorIs(t, err, notification.ErrStorage)
	})

	t.Run("still returns the record when persisting the count fails", func(t *testing.T) {
		s := &mockStore{
			records: []*notification.Record{{
				CommID:       "limited",
				ExpiresAt:    now.Add(time.Hour),
				DisplayLimit: intPtr(3),
			}},
			upsertErr: errMock,
		}

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 1, record.DisplayCount)
	})

	t.Run("eviction failures do not abort the pass", func(t *testing.T) {
		s := &mockStore{
			records: []*notification.Record{
				{CommID: "expired", ExpiresAt: now.Add(-time.Hour)},
				{CommID: "fresh", ExpiresAt: now.Add(time.Hour), DisplayUnlimited: true},
			},
			deleteErr: errMock,
		}

		selector := notification.NewSelector(firstPicker, zap.NewNop())

		record, err := selector.Select(context.Background(), s, currentURL, now)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "fresh", record.CommID)
	})
}

func TestNewRandomPicker(t *testing.T) {
	t.Run("stays within bounds", func(t *testing.T) {
		pick := notification.NewRandomPicker()

		for range 100 {
			i := pick(3)
			assert.GreaterOrEqual(t, i, 0)
			assert.Less(t, i, 3)
		}
	})
}
