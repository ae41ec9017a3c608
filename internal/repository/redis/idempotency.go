package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hermannafesehbuma/khalifa-auto/internal/checkout"
)

const (
	idempotencyPrefix = "checkout:idem:"
	pendingMarker     = "pending"
)

var _ checkout.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore implements checkout.IdempotencyStore using SET NX so that
// concurrent submissions across instances reserve a key at most once.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a new Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, error) {
	k := idempotencyPrefix + key

	// A key can expire between SETNX and GET; one more attempt covers it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("redis setnx idempotency key: %w", err)
		}
		if ok {
			return "", nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("redis get idempotency key: %w", err)
		}
		if val == pendingMarker {
			return "", checkout.ErrSubmissionInFlight
		}
		return val, nil
	}

	return "", checkout.ErrSubmissionInFlight
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, orderID string) error {
	if err := s.client.Set(ctx, idempotencyPrefix+key, orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del idempotency key: %w", err)
	}
	return nil
}
