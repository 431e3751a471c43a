package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/engagekit/onsite/internal/throttle"
	"github.com/redis/go-redis/v9"
)

const markerPrefix = "lastfetch:"

// RedisMarkerStore persists the per-visitor last-fetch marker. It lives
// under its own key namespace so record teardown never touches it.
type RedisMarkerStore struct {
	client *redis.Client
}

// NewRedisMarkerStore creates a Redis-backed throttle marker store.
func NewRedisMarkerStore(client *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{client: client}
}

func (s *RedisMarkerStore) LastFetch(ctx context.Context, visitorID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, markerPrefix+visitorID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}

		return time.Time{}, false, err
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse marker: %w", err)
	}

	return t, true, nil
}

func (s *RedisMarkerStore) SetLastFetch(ctx context.Context, visitorID string, t time.Time) error {
	return s.client.Set(ctx, markerPrefix+visitorID, t.UTC().Format(time.RFC3339Nano), 0).Err()
}

var _ throttle.Store = (*RedisMarkerStore)(nil)
