package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Services whose outbound calls are recorded.
const (
	ServiceMyData = "mydata"
	ServiceGSIS   = "gsis"
)

// Call is the recorded trace of one outbound request to the myDATA proxy or
// the VAT registry. Bodies are stored after credentials are redacted.
type Call struct {
	ID              int64
	CorrelationID   string
	Service         string
	Operation       string
	BranchID        string
	Method          string
	URL             string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Failed reports whether the call did not reach a 2xx answer.
func (c Call) Failed() bool {
	return c.ErrorMessage != "" || c.ResponseStatus == nil || *c.ResponseStatus >= 300
}

// Repository persists call traces.
type Repository interface {
	Save(ctx context.Context, call Call) error
	// FindByCorrelationID returns the calls of one inbound request, oldest first.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]Call, error)
}
