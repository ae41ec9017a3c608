package http

import (
	"log/slog"
	"net/http"

	"github.com/hermannafesehbuma/khalifa-auto/internal/checkout"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
)

// IdempotencyKeyHeader carries the client's checkout submission key.
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler turns the session's cart into an order.
type CheckoutHandler struct {
	adapter *checkout.Adapter
	carts   *service.CartService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(adapter *checkout.Adapter, carts *service.CartService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		adapter: adapter,
		carts:   carts,
		logger:  logger,
	}
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub checkout.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	sub.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)

	store := h.carts.Open(r.Context(), sessionID(r))
	receipt, err := h.adapter.Submit(r.Context(), store, &sub)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, response{Data: receipt})
}
