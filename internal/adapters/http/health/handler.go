package health

import (
	"log/slog"
	"net/http"

	apphealth "italiancorner/mydata_core/internal/application/health"
	corehealth "italiancorner/mydata_core/internal/core/health"
	httperrors "italiancorner/mydata_core/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Status answers 503 when a critical dependency is down so load balancers
// stop routing to the instance. A degraded service still answers 200.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	code := http.StatusOK
	if status.Status == corehealth.StatusDown {
		code = http.StatusServiceUnavailable
	}
	httperrors.WriteJSON(w, code, status, h.log)
}
