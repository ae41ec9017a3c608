package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/pagination"
)

// AdminHandler serves the dealership's order views. Routes are mounted
// behind the admin gate.
type AdminHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(orders *service.OrderService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		orders: orders,
		logger: logger,
	}
}

// ListOrders handles GET /api/v1/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)

	orders, total, err := h.orders.ListOrders(r.Context(), p.Page, p.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, p.Page, p.PerPage))
}

// GetOrder handles GET /api/v1/admin/orders/{id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: order})
}
