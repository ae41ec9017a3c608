package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/validator"
)

// CartHandler handles HTTP requests for the shopper's cart.
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a vehicle to the cart.
type AddItemRequest struct {
	VehicleID int64 `json:"vehicle_id" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the JSON request body for changing a line's
// quantity. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Response DTOs ---

// CartResponse is the cart as returned to the storefront.
type CartResponse struct {
	Items     []cart.LineItem `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// ContainsResponse answers whether a vehicle is in the cart.
type ContainsResponse struct {
	VehicleID int64 `json:"vehicle_id"`
	InCart    bool  `json:"in_cart"`
}

func newCartResponse(store *cart.Store) CartResponse {
	items := store.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartResponse{
		Items:     items,
		ItemCount: store.ItemCount(),
		Total:     store.Total(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Open(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(store)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store := h.carts.Open(r.Context(), sessionID(r))
	if err := h.carts.AddVehicle(r.Context(), store, req.VehicleID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: newCartResponse(store)})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{vehicleId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := httputil.ParseID(w, chi.URLParam(r, "vehicleId"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store := h.carts.Open(r.Context(), sessionID(r))
	if err := store.UpdateQuantity(r.Context(), vehicleID, *req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: newCartResponse(store)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{vehicleId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := httputil.ParseID(w, chi.URLParam(r, "vehicleId"))
	if !ok {
		return
	}

	store := h.carts.Open(r.Context(), sessionID(r))
	if err := store.RemoveItem(r.Context(), vehicleID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: newCartResponse(store)})
}

// ContainsItem handles GET /api/v1/cart/items/{vehicleId}
func (h *CartHandler) ContainsItem(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := httputil.ParseID(w, chi.URLParam(r, "vehicleId"))
	if !ok {
		return
	}

	store := h.carts.Open(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, response{Data: ContainsResponse{
		VehicleID: vehicleID,
		InCart:    store.Contains(vehicleID),
	}})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Open(r.Context(), sessionID(r))
	if err := store.Clear(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
