package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/engagekit/onsite/internal/push"
	"github.com/redis/go-redis/v9"
)

const (
	pushPrefix   = "push:"
	pushTokenKey = "push_tokens"
)

// RedisPushStore keeps push subscriptions in one hash per visitor plus a
// token->visitor reverse index, so unregister-by-token needs no scan.
type RedisPushStore struct {
	client *redis.Client
}

// NewRedisPushStore creates a Redis-backed push subscription store.
func NewRedisPushStore(client *redis.Client) *RedisPushStore {
	return &RedisPushStore{client: client}
}

func (s *RedisPushStore) Save(ctx context.Context, sub *push.Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	// Pipeline keeps the subscription and its reverse index entry together.
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, pushPrefix+sub.VisitorID, sub.Token, payload)
	pipe.HSet(ctx, pushTokenKey, sub.Token, sub.VisitorID)
	_, err = pipe.Exec(ctx)

	return err
}

func (s *RedisPushStore) Delete(ctx context.Context, token string) error {
	visitorID, err := s.client.HGet(ctx, pushTokenKey, token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return err
	}

	pipe := s.client.Pipeline()
	pipe.HDel(ctx, pushPrefix+visitorID, token)
	pipe.HDel(ctx, pushTokenKey, token)
	_, err = pipe.Exec(ctx)

	return err
}

func (s *RedisPushStore) ByVisitor(ctx context.Context, visitorID string) ([]*push.Subscription, error) {
	fields, err := s.client.HGetAll(ctx, pushPrefix+visitorID).Result()
	if err != nil {
		return nil, err
	}

	subs := make([]*push.Subscription, 0, len(fields))

	for _, raw := range fields {
		var sub push.Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("unmarshal subscription: %w", err)
		}

		subs = append(subs, &sub)
	}

	return subs, nil
}

func (s *RedisPushStore) DeleteByVisitor(ctx context.Context, visitorID string) error {
	tokens, err := s.client.HKeys(ctx, pushPrefix+visitorID).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()

	if len(tokens) > 0 {
		pipe.HDel(ctx, pushTokenKey, tokens...)
	}

	pipe.Del(ctx, pushPrefix+visitorID)
	_, err = pipe.Exec(ctx)

	return err
}

var _ push.Store = (*RedisPushStore)(nil)
