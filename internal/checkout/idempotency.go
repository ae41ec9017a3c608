package checkout

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultIdempotencyTTL bounds how long a submission key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// ErrSubmissionInFlight is returned by Reserve when another request holds the
// key and has not finished.
var ErrSubmissionInFlight = errors.New("checkout: submission already in progress")

// IdempotencyStore guards against duplicate checkout submissions.
// Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	// Reserve claims key for a new submission. If the key already completed,
	// the recorded order id is returned and nothing is reserved. If the key
	// is held by a submission still in progress, ErrSubmissionInFlight is
	// returned.
	Reserve(ctx context.Context, key string) (orderID string, err error)

	// Complete records the order id for a reserved key.
	Complete(ctx context.Context, key, orderID string) error

	// Release frees a reserved key so the shopper can resubmit.
	Release(ctx context.Context, key string) error
}

type idempotencyEntry struct {
	orderID   string
	expiresAt time.Time
}

// MemoryIdempotencyStore is an in-memory IdempotencyStore for development and
// single-instance deployments. Expired entries are dropped lazily on access.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryIdempotencyStore creates an in-memory store with the given TTL.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok {
		if now.Before(e.expiresAt) {
			if e.orderID == "" {
				return "", ErrSubmissionInFlight
			}
			return e.orderID, nil
		}
		delete(s.entries, key)
	}

	s.entries[key] = idempotencyEntry{expiresAt: now.Add(s.ttl)}
	return "", nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key, orderID string) error {
	s.mu.Lock()
	s.entries[key] = idempotencyEntry{orderID: orderID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet dropped.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
