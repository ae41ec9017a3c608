package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
)

// Store is a shopper's cart. Every mutating call writes the full item list
// through to Storage under the store's key.
//
// A Store is not safe for concurrent use.
type Store struct {
	items   []LineItem
	storage Storage
	key     string
	logger  *slog.Logger
}

// Open rehydrates the cart persisted under key. A missing, unreadable, or
// malformed snapshot yields an empty cart; the failure is logged, never
// returned.
func Open(ctx context.Context, storage Storage, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		items:   []LineItem{},
		storage: storage,
		key:     key,
		logger:  logger,
	}

	data, err := storage.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			logger.WarnContext(ctx, "cart snapshot unreadable, starting empty",
				slog.String("cart_key", key),
				slog.String("error", err.Error()),
			)
		}
		return s
	}

	items, err := decode(data)
	if err != nil {
		logger.WarnContext(ctx, "cart snapshot malformed, starting empty",
			slog.String("cart_key", key),
			slog.String("error", err.Error()),
		)
		return s
	}

	s.items = items
	return s
}

func decode(data []byte) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("vehicle %d has quantity %d", item.VehicleID, item.Quantity)
		}
		if _, dup := seen[item.VehicleID]; dup {
			return nil, fmt.Errorf("vehicle %d appears more than once", item.VehicleID)
		}
		seen[item.VehicleID] = struct{}{}
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// Key returns the storage key the cart persists under.
func (s *Store) Key() string {
	return s.key
}

// AddItem adds one unit of v. If the vehicle is already in the cart its
// quantity is incremented and the existing snapshot is kept. A nil vehicle
// is ignored and nothing is written.
func (s *Store) AddItem(ctx context.Context, v *domain.Vehicle) error {
	if v == nil {
		s.logger.WarnContext(ctx, "ignoring nil vehicle added to cart", slog.String("cart_key", s.key))
		return nil
	}
	if idx := s.findItemIndex(v.ID); idx >= 0 {
		s.items[idx].Quantity++
	} else {
		s.items = append(s.items, LineItem{
			VehicleID: v.ID,
			Quantity:  1,
			Vehicle:   Snapshot(v),
		})
	}
	return s.persist(ctx)
}

// RemoveItem removes the vehicle's line. Removing an absent vehicle is a no-op.
func (s *Store) RemoveItem(ctx context.Context, vehicleID int64) error {
	idx := s.findItemIndex(vehicleID)
	if idx < 0 {
		return nil
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.persist(ctx)
}

// UpdateQuantity sets the vehicle's quantity. A quantity of zero or less
// removes the line. Updating an absent vehicle is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, vehicleID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, vehicleID)
	}
	idx := s.findItemIndex(vehicleID)
	if idx < 0 {
		return nil
	}
	s.items[idx].Quantity = quantity
	return s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.items = []LineItem{}
	return s.persist(ctx)
}

// Contains reports whether the vehicle is in the cart.
func (s *Store) Contains(vehicleID int64) bool {
	return s.findItemIndex(vehicleID) >= 0
}

// ItemCount returns the total number of units across all lines.
func (s *Store) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Total returns the sum of snapshot price times quantity.
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.clone()
	}
	return out
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Store) findItemIndex(vehicleID int64) int {
	for i, item := range s.items {
		if item.VehicleID == vehicleID {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.storage.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("write cart %s: %w", s.key, err)
	}
	return nil
}
