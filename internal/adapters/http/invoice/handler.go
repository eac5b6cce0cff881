package invoice

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"italiancorner/mydata_core/internal/adapters/http/respond"
	appinvoice "italiancorner/mydata_core/internal/application/invoice"
	"italiancorner/mydata_core/internal/core/invoice"
)

// Handler bridges HTTP traffic with the invoice editor operations. None of
// its endpoints talk to myDATA.
type Handler struct {
	service *appinvoice.Service
	log     *slog.Logger
}

// NewHandler creates a new invoice HTTP handler.
func NewHandler(service *appinvoice.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes registers the invoice and draft endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/invoices/totals", h.Totals)
	r.Post("/invoices/validate", h.Validate)
	r.Post("/invoices/payload", h.Payload)
	r.Post("/invoices/preview", h.Preview)
	r.Get("/drafts", h.LoadDraft)
	r.Put("/drafts", h.SaveDraft)
}

// ValidateResponse lists every local validation problem.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Totals handles POST /invoices/totals.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	quote, err := h.service.Quote(inv)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, quote, h.log)
}

// Validate handles POST /invoices/validate. An invalid invoice is still a
// 200 answer; the problems are in the body.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	errs := h.service.Validate(inv)
	respond.JSON(w, http.StatusOK, ValidateResponse{Valid: len(errs) == 0, Errors: errs}, h.log)
}

// Payload handles POST /invoices/payload?mode=autoLine|separateInvoice|surchargeOnly.
func (h *Handler) Payload(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	mode := invoice.SurchargeMode(r.URL.Query().Get("mode"))
	payload, err := h.service.Payload(inv, mode)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, payload, h.log)
}

// Preview handles POST /invoices/preview?kind=invoice|receipt and streams the
// rendered document.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	kind := invoice.DocumentKind(r.URL.Query().Get("kind"))
	out, contentType, err := h.service.Preview(r.Context(), inv, kind)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.log.Warn("failed to stream preview", "error", err)
	}
}

// LoadDraft handles GET /drafts.
func (h *Handler) LoadDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.service.LoadDraft(r.Context())
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, draft, h.log)
}

// SaveDraft handles PUT /drafts. Drafts are stored as sent, without
// validation.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.service.SaveDraft(r.Context(), draft); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (invoice.Invoice, bool) {
	var inv invoice.Invoice
	if err := respond.DecodeJSON(w, r, &inv); err != nil {
		respond.Error(w, r, err, h.log)
		return inv, false
	}
	return inv, true
}
