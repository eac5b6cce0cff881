package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "italiancorner/mydata_core/internal/infrastructure/context"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		write      bool
		wantLevel  string
	}{
		{name: "2xx status logs as info", statusCode: http.StatusCreated, write: true, wantLevel: "INFO"},
		{name: "implicit 200 logs as info", statusCode: 0, write: true, wantLevel: "INFO"},
		{name: "4xx status logs as warn", statusCode: http.StatusUnprocessableEntity, wantLevel: "WARN"},
		{name: "5xx status logs as error", statusCode: http.StatusBadGateway, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.statusCode != 0 {
					w.WriteHeader(tt.statusCode)
				}
				if tt.write {
					_, _ = w.Write([]byte("ok"))
				}
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/submissions", nil))

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("decode log record %q: %v", buf.String(), err)
			}
			if record["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got %v", tt.wantLevel, record["level"])
			}
			want := tt.statusCode
			if want == 0 {
				want = http.StatusOK
			}
			if record["status"] != float64(want) {
				t.Errorf("expected status %d, got %v", want, record["status"])
			}
			if record["path"] != "/api/v1/submissions" {
				t.Errorf("unexpected path %v", record["path"])
			}
		})
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	var correlationID string
	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID = ctxutil.GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, "host/abc-000001"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if correlationID != "host/abc-000001" {
		t.Errorf("expected correlation id from request id, got %q", correlationID)
	}
	if got := w.Header().Get(RequestIDHeader); got != "host/abc-000001" {
		t.Errorf("expected %s header, got %q", RequestIDHeader, got)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"correlation_id":"host/abc-000001"`)) {
		t.Errorf("expected correlation id in log, got %s", buf.String())
	}
}

func TestRequestLogger_WithoutRequestID(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := ctxutil.GetCorrelationID(r.Context()); id != "" {
			t.Errorf("expected no correlation id, got %q", id)
		}
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Header().Get(RequestIDHeader) != "" {
		t.Error("expected no request id header")
	}
}
