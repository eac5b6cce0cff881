package submission

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"italiancorner/mydata_core/internal/adapters/http/respond"
	appsubmission "italiancorner/mydata_core/internal/application/submission"
	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/queue"
	"italiancorner/mydata_core/internal/infrastructure/http/middleware"
)

// Handler exposes submission and the retry queue.
type Handler struct {
	service     *appsubmission.Service
	bulkTimeout time.Duration
	log         *slog.Logger
}

// NewHandler creates a submission handler. bulkTimeout bounds retry-all.
func NewHandler(service *appsubmission.Service, bulkTimeout time.Duration, log *slog.Logger) *Handler {
	return &Handler{service: service, bulkTimeout: bulkTimeout, log: log}
}

// Routes registers the submission and queue endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/submissions", h.Submit)
	r.Get("/queue", h.ListQueue)
	r.With(middleware.BulkTimeout(h.bulkTimeout)).Post("/queue/retry-all", h.RetryAll)
	r.Post("/queue/{id}/retry", h.Retry)
	r.Delete("/queue/{id}", h.Discard)
}

// Submit handles POST /submissions. A sent invoice answers 201; an attempt
// that failed and was queued answers 202 with the queue id.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var inv invoice.Invoice
	if err := respond.DecodeJSON(w, r, &inv); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}

	outcome, err := h.service.Submit(r.Context(), inv)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, outcomeStatus(outcome), outcome, h.log)
}

// ListQueue handles GET /queue.
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListQueue(r.Context())
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	if entries == nil {
		entries = []queue.FailedEntry{}
	}
	respond.JSON(w, http.StatusOK, entries, h.log)
}

// Retry handles POST /queue/{id}/retry. A retry that myDATA refuses again is
// still a 200; the entry stays queued and the result says why.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, result, h.log)
}

// RetryAll handles POST /queue/retry-all.
func (h *Handler) RetryAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RetryAll(r.Context())
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, report, h.log)
}

// Discard handles DELETE /queue/{id}.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardFailed(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func outcomeStatus(o appsubmission.Outcome) int {
	if o.Sent() {
		return http.StatusCreated
	}
	return http.StatusAccepted
}
