package respond

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"italiancorner/mydata_core/internal/adapters/mydata/proxy"
	appinvoice "italiancorner/mydata_core/internal/application/invoice"
	"italiancorner/mydata_core/internal/application/submission"
	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/kv"
	"italiancorner/mydata_core/internal/core/mydata"
	"italiancorner/mydata_core/internal/testutil"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "validation", err: &invoice.ValidationError{Errors: []string{"line 1: description is required"}}, wantStatus: http.StatusUnprocessableEntity, wantDetail: "line 1: description is required"},
		{name: "wrapped validation", err: fmt.Errorf("preview: %w", &invoice.ValidationError{Errors: []string{"x"}}), wantStatus: http.StatusUnprocessableEntity, wantDetail: "x"},
		{name: "bad body", err: fmt.Errorf("%w: not JSON", ErrBadRequest), wantStatus: http.StatusBadRequest},
		{name: "cancel reason", err: fmt.Errorf("%w: 9", mydata.ErrInvalidCancelReason), wantStatus: http.StatusBadRequest},
		{name: "unknown branch", err: fmt.Errorf("%w: nowhere", branch.ErrUnknownBranch), wantStatus: http.StatusNotFound},
		{name: "history entry", err: history.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "not cancellable", err: submission.ErrNotCancellable, wantStatus: http.StatusConflict},
		{name: "surcharge ineligible", err: submission.ErrNotSurchargeEligible, wantStatus: http.StatusConflict},
		{name: "cas conflict", err: fmt.Errorf("append: %w", kv.ErrConflict), wantStatus: http.StatusConflict},
		{name: "remote rejection", err: fmt.Errorf("%w: duplicate", submission.ErrRemoteRejected), wantStatus: http.StatusBadGateway, wantDetail: "duplicate"},
		{name: "registry down", err: fmt.Errorf("%w: status 500", customer.ErrRegistryUnavailable), wantStatus: http.StatusBadGateway},
		{name: "breaker open", err: proxy.ErrCircuitOpen, wantStatus: http.StatusServiceUnavailable},
		{name: "no renderer", err: appinvoice.ErrRendererUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout},
		{name: "unknown", err: errors.New("pq: password=secret"), wantStatus: http.StatusInternalServerError, wantDetail: "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, httptest.NewRequest(http.MethodPost, "/api/v1/submissions", nil), tt.err, testutil.NewNullLogger())

			body := testutil.ReadErrorResponse(t, w, tt.wantStatus)
			if body.Message == "" {
				t.Error("expected a message")
			}
			if tt.wantDetail == "" {
				return
			}
			if len(body.Errors) == 0 || !strings.Contains(body.Errors[0], tt.wantDetail) {
				t.Errorf("expected detail %q, got %v", tt.wantDetail, body.Errors)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"branchId":"central"}`},
		{name: "malformed", body: `{"branchId":`, wantErr: true},
		{name: "trailing value", body: `{} {}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				BranchID string `json:"branchId"`
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := DecodeJSON(httptest.NewRecorder(), req, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrBadRequest) {
				t.Errorf("expected ErrBadRequest, got %v", err)
			}
		})
	}
}
