package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	apperrors "github.com/hermannafesehbuma/khalifa-auto/pkg/errors"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/validator"
)

// ErrCheckoutFailed is the single failure signal for a rejected or failed
// order submission. The underlying cause is wrapped for logs only.
var ErrCheckoutFailed = errors.New("checkout failed")

// bookkeepingTimeout bounds the key and cart writes that follow the order
// call. They run detached from the request so a disconnect after the order
// commits cannot leave the cart full or the key pending.
const bookkeepingTimeout = 5 * time.Second

// Customer is the buyer information collected by the checkout form.
type Customer = domain.Customer

// OrderLine is one cart line as sent to the order collaborator.
type OrderLine struct {
	VehicleID int64           `json:"vehicle_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRequest is the payload of a single order-creation call.
type OrderRequest struct {
	Customer      Customer        `json:"customer"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderLine     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`

	// Descriptions carries the cart snapshot title per vehicle id for
	// notification emails. It is not part of the persisted order lines.
	Descriptions map[int64]string `json:"-"`
}

// OrderResult is returned by a successful order creation.
type OrderResult struct {
	OrderID string                `json:"order_id"`
	Steps   []domain.PipelineStep `json:"steps,omitempty"`
}

// OrderCreator creates an order from a checkout request.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)
}

// Submission is the shopper's checkout input.
type Submission struct {
	Customer      Customer `json:"customer" validate:"required"`
	PaymentMethod string   `json:"payment_method" validate:"required,max=50"`

	// IdempotencyKey is optional. Resubmitting a key that already produced an
	// order returns that order instead of creating another.
	IdempotencyKey string `json:"-" validate:"omitempty,max=255"`
}

// Receipt describes the outcome of a submission.
type Receipt struct {
	OrderID  string                `json:"order_id"`
	Replayed bool                  `json:"replayed,omitempty"`
	Steps    []domain.PipelineStep `json:"steps,omitempty"`
}

// Adapter turns the contents of a cart into exactly one order-creation call.
type Adapter struct {
	creator     OrderCreator
	idempotency IdempotencyStore
	logger      *slog.Logger
}

// NewAdapter creates a checkout adapter. idempotency may be nil, in which case
// submission keys are ignored.
func NewAdapter(creator OrderCreator, idempotency IdempotencyStore, logger *slog.Logger) *Adapter {
	return &Adapter{
		creator:     creator,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Submit places an order for the cart's contents. On success the cart is
// cleared. On failure the cart is left untouched and the returned error wraps
// ErrCheckoutFailed.
func (a *Adapter) Submit(ctx context.Context, store *cart.Store, sub *Submission) (*Receipt, error) {
	if sub == nil {
		submissionsTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, apperrors.InvalidInput("checkout submission is required")
	}
	if err := validator.Validate(sub); err != nil {
		submissionsTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, err
	}

	key := sub.IdempotencyKey
	guarded := key != "" && a.idempotency != nil
	if guarded {
		orderID, err := a.idempotency.Reserve(ctx, key)
		switch {
		case errors.Is(err, ErrSubmissionInFlight):
			submissionsTotal.WithLabelValues(outcomeConflict).Inc()
			return nil, apperrors.Conflict("this order is already being submitted")
		case err != nil:
			a.logger.WarnContext(ctx, "idempotency reservation failed, submitting unguarded",
				slog.String("cart_key", store.Key()),
				slog.String("error", err.Error()),
			)
			guarded = false
		case orderID != "":
			submissionsTotal.WithLabelValues(outcomeReplayed).Inc()
			a.logger.InfoContext(ctx, "duplicate checkout submission replayed",
				slog.String("order_id", orderID),
			)
			return &Receipt{OrderID: orderID, Replayed: true}, nil
		}
	}

	if store.IsEmpty() {
		a.release(ctx, key, guarded)
		submissionsTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, apperrors.InvalidInput("cart is empty")
	}

	req := buildRequest(store, sub)

	result, err := a.creator.CreateOrder(ctx, req)

	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	if err == nil && (result == nil || result.OrderID == "") {
		err = errors.New("order collaborator returned no order id")
	}
	if err != nil {
		a.release(bctx, key, guarded)
		submissionsTotal.WithLabelValues(outcomeFailed).Inc()
		a.logger.ErrorContext(ctx, "checkout failed",
			slog.String("cart_key", store.Key()),
			slog.Int("item_count", store.ItemCount()),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Upstream("CHECKOUT_FAILED",
			"your order could not be placed, please try again",
			fmt.Errorf("%w: %w", ErrCheckoutFailed, err))
	}

	if guarded {
		if err := a.idempotency.Complete(bctx, key, result.OrderID); err != nil {
			a.logger.WarnContext(ctx, "failed to record checkout idempotency key",
				slog.String("order_id", result.OrderID),
				slog.String("error", err.Error()),
			)
		}
	}

	// The order exists at this point; a failed clear leaves a stale cart but
	// must not report the order as failed.
	if err := store.Clear(bctx); err != nil {
		a.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("order_id", result.OrderID),
			slog.String("cart_key", store.Key()),
			slog.String("error", err.Error()),
		)
	}

	submissionsTotal.WithLabelValues(outcomeSuccess).Inc()
	a.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", result.OrderID),
		slog.String("total_amount", req.TotalAmount.StringFixed(2)),
	)

	return &Receipt{OrderID: result.OrderID, Steps: result.Steps}, nil
}

func (a *Adapter) release(ctx context.Context, key string, guarded bool) {
	if !guarded {
		return
	}
	if err := a.idempotency.Release(ctx, key); err != nil {
		a.logger.WarnContext(ctx, "failed to release checkout idempotency key",
			slog.String("error", err.Error()),
		)
	}
}

func buildRequest(store *cart.Store, sub *Submission) *OrderRequest {
	items := store.Items()
	req := &OrderRequest{
		Customer:      sub.Customer,
		PaymentMethod: sub.PaymentMethod,
		Items:         make([]OrderLine, len(items)),
		TotalAmount:   store.Total(),
		Descriptions:  make(map[int64]string, len(items)),
	}
	for i, item := range items {
		req.Items[i] = OrderLine{
			VehicleID: item.VehicleID,
			Quantity:  item.Quantity,
			Price:     item.Vehicle.Price,
		}
		req.Descriptions[item.VehicleID] = fmt.Sprintf("%d %s %s", item.Vehicle.Year, item.Vehicle.Brand, item.Vehicle.Model)
	}
	return req
}
