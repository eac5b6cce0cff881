package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"italiancorner/mydata_core/internal/testutil"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		message      string
		errors       []string
		expectedBody ErrorResponse
	}{
		{
			name:       "validation errors",
			statusCode: http.StatusUnprocessableEntity,
			message:    "Invoice is not valid",
			errors:     []string{"invoice number is required", "line 1: description is required"},
			expectedBody: ErrorResponse{
				Message: "Invoice is not valid",
				Errors:  []string{"invoice number is required", "line 1: description is required"},
			},
		},
		{
			name:         "nil errors become an empty list",
			statusCode:   http.StatusNotFound,
			message:      "History entry not found",
			errors:       nil,
			expectedBody: ErrorResponse{Message: "History entry not found", Errors: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.statusCode, tt.message, tt.errors, testutil.NewNullLogger())

			if w.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %s", ct)
			}

			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Message != tt.expectedBody.Message {
				t.Errorf("expected message %q, got %q", tt.expectedBody.Message, body.Message)
			}
			if body.Errors == nil || len(body.Errors) != len(tt.expectedBody.Errors) {
				t.Fatalf("expected errors %v, got %v", tt.expectedBody.Errors, body.Errors)
			}
			for i := range body.Errors {
				if body.Errors[i] != tt.expectedBody.Errors[i] {
					t.Errorf("error %d: expected %q, got %q", i, tt.expectedBody.Errors[i], body.Errors[i])
				}
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"mark": "400001"}, nil)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if got := w.Body.String(); got != "{\"mark\":\"400001\"}\n" {
		t.Errorf("unexpected body %q", got)
	}
}
