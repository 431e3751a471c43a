package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/engagekit/onsite/internal/notification"
	"github.com/redis/go-redis/v9"
)

const recordPrefix = "records:"

// RedisRecordStores is a Redis-backed notification.StoreProvider. Each
// visitor's records live in one hash, fields keyed by commId with JSON
// values, so upsert and delete are single-field operations and teardown
// drops the whole hash at once.
type RedisRecordStores struct {
	client *redis.Client
}

// NewRedisRecordStores creates a Redis-backed record store provider.
func NewRedisRecordStores(client *redis.Client) *RedisRecordStores {
	return &RedisRecordStores{client: client}
}

func (s *RedisRecordStores) Open(visitorID string) notification.Store {
	return &redisRecordStore{
		client: s.client,
		key:    recordPrefix + visitorID,
	}
}

// Prune walks every visitor hash and drops expired and exhausted
// records.
func (s *RedisRecordStores) Prune(ctx context.Context, now time.Time) (int, error) {
	var pruned int

	iter := s.client.Scan(ctx, 0, recordPrefix+"*", 100).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()

		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return pruned, fmt.Errorf("%w: %v", notification.ErrStorage, err)
		}

		var stale []string

		for commID, raw := range fields {
			var record notification.Record
			if err := json.Unmarshal([]byte(raw), &record); err != nil {
				// An undecodable record can never be selected; drop it.
				stale = append(stale, commID)

				continue
			}

			if record.Expired(now) || record.Exhausted() {
				stale = append(stale, commID)
			}
		}

		if len(stale) == 0 {
			continue
		}

		if err := s.client.HDel(ctx, key, stale...).Err(); err != nil {
			return pruned, fmt.Errorf("%w: %v", notification.ErrStorage, err)
		}

		pruned += len(stale)
	}

	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return pruned, nil
}

type redisRecordStore struct {
	client *redis.Client
	key    string
}

func (r *redisRecordStore) Upsert(ctx context.Context, record *notification.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", notification.ErrStorage, err)
	}

	if err := r.client.HSet(ctx, r.key, record.CommID, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return nil
}

func (r *redisRecordStore) All(ctx context.Context) ([]*notification.Record, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	records := make([]*notification.Record, 0, len(fields))

	for _, raw := range fields {
		var record notification.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("%w: unmarshal: %v", notification.ErrStorage, err)
		}

		records = append(records, &record)
	}

	return records, nil
}

func (r *redisRecordStore) Delete(ctx context.Context, commID string) error {
	if err := r.client.HDel(ctx, r.key, commID).Err(); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return nil
}

func (r *redisRecordStore) Teardown(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return nil
}

var (
	_ notification.StoreProvider = (*RedisRecordStores)(nil)
	_ notification.Pruner        = (*RedisRecordStores)(nil)
)
