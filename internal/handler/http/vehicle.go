package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/pagination"
)

// VehicleHandler serves the public inventory catalog.
type VehicleHandler struct {
	vehicles *service.VehicleService
	logger   *slog.Logger
}

// NewVehicleHandler creates a new vehicle HTTP handler.
func NewVehicleHandler(vehicles *service.VehicleService, logger *slog.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicles: vehicles,
		logger:   logger,
	}
}

// ListVehicles handles GET /api/v1/vehicles
//
// Query parameters: brand, body_style, min_price, max_price, include_sold,
// page, per_page. Sold vehicles are hidden unless include_sold=true.
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pagination.FromRequest(r)

	filter := domain.VehicleFilter{
		AvailableOnly: q.Get("include_sold") != "true",
		Page:          p.Page,
		PerPage:       p.PerPage,
	}
	if v := strings.TrimSpace(q.Get("brand")); v != "" {
		filter.Brand = &v
	}
	if v := strings.TrimSpace(q.Get("body_style")); v != "" {
		filter.BodyStyle = &v
	}

	var ok bool
	if filter.MinPrice, ok = priceParam(w, q.Get("min_price")); !ok {
		return
	}
	if filter.MaxPrice, ok = priceParam(w, q.Get("max_price")); !ok {
		return
	}

	vehicles, total, err := h.vehicles.ListVehicles(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, httputil.NewPaginatedResponse(vehicles, total, p.Page, p.PerPage))
}

// GetVehicle handles GET /api/v1/vehicles/{id}
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	v, err := h.vehicles.GetVehicle(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: v})
}

func priceParam(w http.ResponseWriter, raw string) (*decimal.Decimal, bool) {
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_PARAMETER", Message: "invalid price: " + raw},
		})
		return nil, false
	}
	return &d, true
}
