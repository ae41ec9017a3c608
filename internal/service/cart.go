package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
	"github.com/hermannafesehbuma/khalifa-auto/internal/repository"
)

// CartService opens shopper carts and fills them from the catalog.
type CartService struct {
	storage  cart.Storage
	vehicles repository.VehicleRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(storage cart.Storage, vehicles repository.VehicleRepository, logger *slog.Logger) *CartService {
	return &CartService{
		storage:  storage,
		vehicles: vehicles,
		logger:   logger,
	}
}

// Open rehydrates the cart owned by a shopper session.
func (s *CartService) Open(ctx context.Context, sessionID string) *cart.Store {
	return cart.Open(ctx, s.storage, cart.SessionKey(sessionID), s.logger)
}

// AddVehicle loads the current catalog record and adds one unit of it to
// the cart.
func (s *CartService) AddVehicle(ctx context.Context, store *cart.Store, vehicleID int64) error {
	v, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("load vehicle: %w", err)
	}
	if err := store.AddItem(ctx, v); err != nil {
		return fmt.Errorf("add vehicle to cart: %w", err)
	}
	s.logger.DebugContext(ctx, "vehicle added to cart",
		slog.Int64("vehicle_id", vehicleID),
		slog.String("cart_key", store.Key()),
	)
	return nil
}
