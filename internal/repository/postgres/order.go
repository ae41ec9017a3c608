package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/database"
	apperrors "github.com/hermannafesehbuma/khalifa-auto/pkg/errors"
)

const (
	insertOrderQuery = `
		INSERT INTO orders (id, first_name, last_name, email, phone, address, city, state, zip_code,
			payment_method, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::numeric, $13, $14)`

	insertOrderItemQuery = `
		INSERT INTO order_items (id, order_id, vehicle_id, description, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)`

	orderColumns = `o.id, o.first_name, o.last_name, o.email, o.phone, o.address, o.city, o.state,
		o.zip_code, o.payment_method, o.status, o.total_amount::text, o.created_at, o.updated_at`
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order row and every item row in one transaction. Either
// all rows are written or none are.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	c := o.Customer
	_, err = tx.Exec(ctx, insertOrderQuery,
		o.ID,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.State, c.ZipCode,
		o.PaymentMethod,
		o.Status,
		o.TotalAmount.String(),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemQuery,
			item.ID,
			item.OrderID,
			item.VehicleID,
			item.Description,
			item.Quantity,
			item.Price.String(),
		)
		if err != nil {
			return fmt.Errorf("insert order item for vehicle %d: %w", item.VehicleID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type orderItemRow struct {
	ID          string          `json:"id"`
	VehicleID   int64           `json:"vehicle_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// GetByID retrieves an order and its items in a single query.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (o *domain.Order, err error) {
	query := `
		SELECT ` + orderColumns + `,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'vehicle_id', oi.vehicle_id,
						'description', oi.description,
						'quantity', oi.quantity,
						'price', oi.price::text
					) ORDER BY oi.vehicle_id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	var (
		order     domain.Order
		total     string
		itemsJSON []byte
	)
	c := &order.Customer
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.ZipCode,
		&order.PaymentMethod,
		&order.Status,
		&total,
		&order.CreatedAt,
		&order.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if order.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse order total: %w", err)
	}

	var rows []orderItemRow
	if len(itemsJSON) > 0 {
		if err = json.Unmarshal(itemsJSON, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	order.Items = make([]domain.OrderItem, len(rows))
	for i, row := range rows {
		order.Items[i] = domain.OrderItem{
			ID:          row.ID,
			OrderID:     order.ID,
			VehicleID:   row.VehicleID,
			Description: row.Description,
			Quantity:    row.Quantity,
			Price:       row.Price,
		}
	}

	return &order, nil
}

// List returns a page of orders, newest first. Items are not loaded.
func (r *OrderRepository) List(ctx context.Context, page, perPage int) (orders []domain.Order, total int, err error) {
	query := `
		SELECT ` + orderColumns + `, count(*) OVER() AS total_count
		FROM orders o
		ORDER BY o.created_at DESC
		LIMIT $1 OFFSET $2`

	if perPage <= 0 {
		perPage = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		var (
			o      domain.Order
			amount string
		)
		c := &o.Customer
		if err = rows.Scan(
			&o.ID,
			&c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.ZipCode,
			&o.PaymentMethod,
			&o.Status,
			&amount,
			&o.CreatedAt,
			&o.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		if o.TotalAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, 0, fmt.Errorf("parse total of order %s: %w", o.ID, err)
		}
		o.Items = []domain.OrderItem{}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, total, nil
}
