package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/repository"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/pagination"
)

// VehicleService serves the vehicle catalog.
type VehicleService struct {
	repo   repository.VehicleRepository
	logger *slog.Logger
}

// NewVehicleService creates a new vehicle service.
func NewVehicleService(repo repository.VehicleRepository, logger *slog.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// GetVehicle retrieves a vehicle by id.
func (s *VehicleService) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

// ListVehicles returns a page of catalog vehicles and the total match count.
func (s *VehicleService) ListVehicles(ctx context.Context, filter domain.VehicleFilter) ([]domain.Vehicle, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > pagination.MaxPerPage {
		filter.PerPage = pagination.DefaultParams().PerPage
	}

	vehicles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, total, nil
}
