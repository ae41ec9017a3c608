package http

import (
	"log/slog"
	"net/http"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
)

// LeadHandler accepts inquiries, financing applications, trade-in requests
// and contact messages from the storefront.
type LeadHandler struct {
	leads  *service.LeadService
	logger *slog.Logger
}

// NewLeadHandler creates a new lead HTTP handler.
func NewLeadHandler(leads *service.LeadService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:  leads,
		logger: logger,
	}
}

// SubmitLead handles POST /api/v1/leads
func (h *LeadHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var lead domain.Lead
	if !decodeBody(w, r, &lead) {
		return
	}

	result, err := h.leads.Submit(r.Context(), &lead)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusAccepted, response{Data: result})
}
