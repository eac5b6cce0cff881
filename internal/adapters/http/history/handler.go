package history

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"italiancorner/mydata_core/internal/adapters/export/xlsx"
	"italiancorner/mydata_core/internal/adapters/http/respond"
	"italiancorner/mydata_core/internal/application/ledger"
	"italiancorner/mydata_core/internal/application/submission"
	corehistory "italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/infrastructure/http/middleware"
)

// Handler exposes the submission history, the trash and the operations that
// act on a recorded entry: cancellation and the separate surcharge document.
type Handler struct {
	ledger      *ledger.Service
	submissions *submission.Service
	bulkTimeout time.Duration
	log         *slog.Logger
}

func NewHandler(ledger *ledger.Service, submissions *submission.Service, bulkTimeout time.Duration, log *slog.Logger) *Handler {
	return &Handler{ledger: ledger, submissions: submissions, bulkTimeout: bulkTimeout, log: log}
}

// Routes registers the history and trash endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/history", h.List)
	r.With(middleware.BulkTimeout(h.bulkTimeout)).Get("/history/export", h.Export)
	r.Get("/history/summary", h.Summary)
	r.Post("/history/{id}/cancel", h.Cancel)
	r.Post("/history/{id}/surcharge-document", h.SurchargeDocument)
	r.Delete("/history/{id}", h.Trash)

	r.Get("/trash", h.ListTrash)
	r.Post("/trash/{id}/restore", h.Restore)
	r.Delete("/trash/{id}", h.Purge)
}

// List handles GET /history?branch=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.List(r.Context(), r.URL.Query().Get("branch"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, nonNil(entries), h.log)
}

// Export handles GET /history/export?branch= and answers an XLSX workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	branchID := r.URL.Query().Get("branch")
	entries, err := h.ledger.List(r.Context(), branchID)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteHistory(&buf, entries); err != nil {
		respond.Error(w, r, fmt.Errorf("export history: %w", err), h.log)
		return
	}

	scope := branchID
	if scope == "" {
		scope = "all"
	}
	filename := fmt.Sprintf("history-%s-%s.xlsx", scope, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("failed to stream history export", "error", err)
	}
}

// Summary handles GET /history/summary?branch=.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.Summary(r.Context(), r.URL.Query().Get("branch"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, sum, h.log)
}

// CancelRequest carries the myDATA cancellation reason code.
type CancelRequest struct {
	ReasonCode string `json:"cancelReasonCode"`
}

// Cancel handles POST /history/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	entry, err := h.submissions.Cancel(r.Context(), chi.URLParam(r, "id"), req.ReasonCode)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, entry, h.log)
}

// SurchargeDocument handles POST /history/{id}/surcharge-document. Like a
// submission it answers 201 when sent and 202 when queued.
func (h *Handler) SurchargeDocument(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.submissions.IssueSurchargeDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	status := http.StatusAccepted
	if outcome.Sent() {
		status = http.StatusCreated
	}
	respond.JSON(w, status, outcome, h.log)
}

// Trash handles DELETE /history/{id}.
func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.Trash(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, entry, h.log)
}

// ListTrash handles GET /trash.
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListTrash(r.Context())
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, nonNil(entries), h.log)
}

// Restore handles POST /trash/{id}/restore.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, entry, h.log)
}

// Purge handles DELETE /trash/{id}.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Purge(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(entries []corehistory.Entry) []corehistory.Entry {
	if entries == nil {
		return []corehistory.Entry{}
	}
	return entries
}
