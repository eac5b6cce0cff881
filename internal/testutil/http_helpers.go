package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// T is the subset of testing.TB used by the helpers.
type T interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// ReadJSONResponse checks the status code and unmarshals the JSON body into v.
func ReadJSONResponse(t T, w *httptest.ResponseRecorder, status int, v any) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
		t.FailNow()
	}
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Errorf("failed to decode JSON response: %v", err)
		t.FailNow()
	}
}

// ErrorBody is the shape written by httperrors.WriteError.
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ReadErrorResponse checks the status code and decodes an error body.
func ReadErrorResponse(t T, w *httptest.ResponseRecorder, status int) ErrorBody {
	t.Helper()
	var body ErrorBody
	ReadJSONResponse(t, w, status, &body)
	return body
}

// CreateRequest creates an HTTP request with an optional JSON body.
func CreateRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
