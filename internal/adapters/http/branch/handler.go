package branch

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"italiancorner/mydata_core/internal/adapters/http/respond"
	"italiancorner/mydata_core/internal/application/sequence"
	corebranch "italiancorner/mydata_core/internal/core/branch"
)

// Handler exposes the branch registry and the invoice sequencer.
type Handler struct {
	registry  *corebranch.Registry
	sequencer *sequence.Service
	log       *slog.Logger
}

func NewHandler(registry *corebranch.Registry, sequencer *sequence.Service, log *slog.Logger) *Handler {
	return &Handler{registry: registry, sequencer: sequencer, log: log}
}

// Routes registers the branch endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/branches", h.List)
	r.Get("/branches/{branchID}/next-number", h.NextNumber)
}

// List handles GET /branches.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.registry.All(), h.log)
}

// NextNumberResponse is the number the editor should prefill.
type NextNumberResponse struct {
	BranchID   string `json:"branchId"`
	NextNumber string `json:"nextNumber"`
	Highest    int    `json:"highestSequence"`
}

// NextNumber handles GET /branches/{branchID}/next-number. It never writes.
func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")

	next, err := h.sequencer.Next(r.Context(), branchID)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	highest, err := h.sequencer.Highest(r.Context(), branchID)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, NextNumberResponse{BranchID: branchID, NextNumber: next, Highest: highest}, h.log)
}
