package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
)

var _ cart.Storage = (*CartStorage)(nil)

// CartStorage implements cart.Storage using Redis. Each read or write slides
// the key's expiry forward by ttl. A zero ttl keeps carts forever.
type CartStorage struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCartStorage creates a new Redis-backed cart storage.
func NewCartStorage(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CartStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartStorage{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Read returns the snapshot stored under key, or cart.ErrNoSnapshot.
func (s *CartStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrNoSnapshot
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	// The snapshot is still good if the expiry refresh fails; the next write
	// resets the TTL anyway.
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh cart expiry",
				slog.String("cart_key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return data, nil
}

// Write stores data under key with the configured TTL.
func (s *CartStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}
