package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/database"
	apperrors "github.com/hermannafesehbuma/khalifa-auto/pkg/errors"
)

const vehicleColumns = `id, brand, model, year, price::text, mileage, body_style, available,
	COALESCE(images, '{}'), category_id, COALESCE(fuel_type, ''), COALESCE(transmission, ''),
	COALESCE(color, ''), COALESCE(description, ''), created_at, updated_at`

// VehicleRepository implements repository.VehicleRepository over the cars table.
type VehicleRepository struct {
	pool database.DBTX
}

// NewVehicleRepository creates a new PostgreSQL-backed vehicle repository.
func NewVehicleRepository(pool database.DBTX) *VehicleRepository {
	return &VehicleRepository{pool: pool}
}

// GetByID retrieves a vehicle by id.
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (v *domain.Vehicle, err error) {
	query := `SELECT ` + vehicleColumns + ` FROM cars WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetVehicle", query)
	defer func() { end(err) }()

	v, err = scanVehicle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("vehicle", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	return v, nil
}

// List returns vehicles matching the filter, newest first.
func (r *VehicleRepository) List(ctx context.Context, filter domain.VehicleFilter) (vehicles []domain.Vehicle, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Brand != nil {
		conditions = append(conditions, fmt.Sprintf("brand ILIKE $%d", argIndex))
		args = append(args, *filter.Brand)
		argIndex++
	}
	if filter.BodyStyle != nil {
		conditions = append(conditions, fmt.Sprintf("body_style = $%d", argIndex))
		args = append(args, *filter.BodyStyle)
		argIndex++
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d::numeric", argIndex))
		args = append(args, filter.MinPrice.String())
		argIndex++
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d::numeric", argIndex))
		args = append(args, filter.MaxPrice.String())
		argIndex++
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "available = true")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM cars
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		vehicleColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListVehicles", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles = make([]domain.Vehicle, 0)
	for rows.Next() {
		var (
			v     domain.Vehicle
			price string
		)
		if err = rows.Scan(
			&v.ID, &v.Brand, &v.Model, &v.Year, &price, &v.Mileage, &v.BodyStyle, &v.Available,
			&v.Images, &v.CategoryID, &v.Fuel, &v.Transmission, &v.Color, &v.Description,
			&v.CreatedAt, &v.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan vehicle row: %w", err)
		}
		if v.Price, err = decimal.NewFromString(price); err != nil {
			return nil, 0, fmt.Errorf("parse price of vehicle %d: %w", v.ID, err)
		}
		vehicles = append(vehicles, v)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate vehicle rows: %w", err)
	}

	return vehicles, total, nil
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var (
		v     domain.Vehicle
		price string
	)
	if err := row.Scan(
		&v.ID, &v.Brand, &v.Model, &v.Year, &price, &v.Mileage, &v.BodyStyle, &v.Available,
		&v.Images, &v.CategoryID, &v.Fuel, &v.Transmission, &v.Color, &v.Description,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	v.Price = p
	return &v, nil
}
