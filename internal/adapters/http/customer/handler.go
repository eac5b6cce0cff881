package customer

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"italiancorner/mydata_core/internal/adapters/http/respond"
	appcustomer "italiancorner/mydata_core/internal/application/customer"
	corecustomer "italiancorner/mydata_core/internal/core/customer"
)

// Handler exposes the per-branch customer books and the VAT registry lookup.
type Handler struct {
	service *appcustomer.Service
	log     *slog.Logger
}

func NewHandler(service *appcustomer.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes registers the customer endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/branches/{branchID}/customers", h.List)
	r.Put("/branches/{branchID}/customers", h.Save)
	r.Get("/branches/{branchID}/customers/search", h.Search)
	r.Delete("/branches/{branchID}/customers/{vat}", h.Delete)
	r.Get("/gsis/lookup", h.Lookup)
}

// List handles GET /branches/{branchID}/customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context(), chi.URLParam(r, "branchID"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, nonNil(customers), h.log)
}

// Save handles PUT /branches/{branchID}/customers. It answers 201 for a new
// VAT number and 200 when an existing customer was replaced.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var c corecustomer.Customer
	if err := respond.DecodeJSON(w, r, &c); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	saved, created, err := h.service.Save(r.Context(), chi.URLParam(r, "branchID"), c)
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, status, saved, h.log)
}

// Search handles GET /branches/{branchID}/customers/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.Search(r.Context(), chi.URLParam(r, "branchID"), r.URL.Query().Get("q"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, nonNil(customers), h.log)
}

// Delete handles DELETE /branches/{branchID}/customers/{vat}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "branchID"), chi.URLParam(r, "vat")); err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lookup handles GET /gsis/lookup?vat=.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Lookup(r.Context(), r.URL.Query().Get("vat"))
	if err != nil {
		respond.Error(w, r, err, h.log)
		return
	}
	respond.JSON(w, http.StatusOK, record, h.log)
}

func nonNil(customers []corecustomer.Customer) []corecustomer.Customer {
	if customers == nil {
		return []corecustomer.Customer{}
	}
	return customers
}
