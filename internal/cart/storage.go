package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by Storage.Read when nothing is stored under the key.
var ErrNoSnapshot = errors.New("cart: no snapshot stored")

// Storage is the durable key-value store a Store writes through to.
type Storage interface {
	// Read returns the raw snapshot stored under key, or ErrNoSnapshot.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the snapshot stored under key.
	Write(ctx context.Context, key string, data []byte) error
}

// MemoryStorage is a process-local Storage. It is safe for concurrent use.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.data[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStorage) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), data...)
	return nil
}

// KeyPrefix namespaces cart snapshots in shared storage.
const KeyPrefix = "cart:"

// SessionKey returns the storage key of the cart owned by a shopper session.
func SessionKey(sessionID string) string {
	return KeyPrefix + sessionID
}
