// Package respond maps application errors to HTTP answers for every handler.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"italiancorner/mydata_core/internal/adapters/mydata/proxy"
	appcustomer "italiancorner/mydata_core/internal/application/customer"
	appinvoice "italiancorner/mydata_core/internal/application/invoice"
	"italiancorner/mydata_core/internal/application/sequence"
	"italiancorner/mydata_core/internal/application/submission"
	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/kv"
	"italiancorner/mydata_core/internal/core/mydata"
	"italiancorner/mydata_core/internal/core/queue"
	ctxutil "italiancorner/mydata_core/internal/infrastructure/context"
	httperrors "italiancorner/mydata_core/internal/infrastructure/http"
)

// maxBodyBytes bounds request bodies. An invoice with a few hundred lines
// stays far below it.
const maxBodyBytes = 1 << 20

// ErrBadRequest wraps malformed request input.
var ErrBadRequest = errors.New("bad request")

// DecodeJSON reads a JSON body into v, rejecting unknown trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body is not valid JSON: %v", ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body must hold a single JSON value", ErrBadRequest)
	}
	return nil
}

// JSON writes a success body.
func JSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	httperrors.WriteJSON(w, status, v, log)
}

// Error writes the ErrorResponse matching err and logs it with the request's
// correlation id. Unknown errors become 500 without leaking their text.
func Error(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	status, message, details := classify(err)

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if id := ctxutil.GetCorrelationID(r.Context()); id != "" {
		attrs = append(attrs, "correlation_id", id)
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	httperrors.WriteError(w, status, message, details, log)
}

func classify(err error) (int, string, []string) {
	var validation *invoice.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, "Validation failed", validation.Errors
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, mydata.ErrInvalidCancelReason),
		errors.Is(err, invoice.ErrUnknownSurchargeMode),
		errors.Is(err, appcustomer.ErrInvalidCustomer),
		errors.Is(err, sequence.ErrNoSequence):
		return http.StatusBadRequest, "Invalid request", []string{err.Error()}
	case errors.Is(err, branch.ErrUnknownBranch),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, queue.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, customer.ErrRecordNotFound),
		errors.Is(err, invoice.ErrDraftNotFound):
		return http.StatusNotFound, "Not found", []string{err.Error()}
	case errors.Is(err, submission.ErrNotCancellable),
		errors.Is(err, submission.ErrNotSurchargeEligible),
		errors.Is(err, submission.ErrNoSurcharge),
		errors.Is(err, kv.ErrConflict):
		return http.StatusConflict, "Conflict", []string{err.Error()}
	case errors.Is(err, submission.ErrRemoteRejected),
		errors.Is(err, submission.ErrCancelRejected),
		errors.Is(err, customer.ErrRegistryUnavailable):
		return http.StatusBadGateway, "Upstream rejected the request", []string{err.Error()}
	case errors.Is(err, proxy.ErrCircuitOpen),
		errors.Is(err, appinvoice.ErrRendererUnavailable),
		errors.Is(err, appcustomer.ErrDirectoryUnavailable):
		return http.StatusServiceUnavailable, "Service unavailable", []string{err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timed out", []string{"the operation did not finish in time"}
	default:
		return http.StatusInternalServerError, "Internal server error", []string{"an internal error occurred"}
	}
}
