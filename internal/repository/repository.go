package repository

import (
	"context"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
)

// VehicleRepository reads the vehicle catalog.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)

	// List returns vehicles matching the filter and the total match count.
	List(ctx context.Context, filter domain.VehicleFilter) ([]domain.Vehicle, int, error)
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts an order and all of its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns a page of orders, newest first, and the total count.
	List(ctx context.Context, page, perPage int) ([]domain.Order, int, error)
}
