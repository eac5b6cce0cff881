package testutil

import (
	"context"
	"sync"

	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/mydata"
)

// MockGateway is a mock implementation of mydata.Gateway for testing.
// Unset functions answer OK with mark "MARK-1". Every payload it receives is
// recorded in call order.
type MockGateway struct {
	ValidateFunc func(ctx context.Context, payload invoice.Payload) mydata.Result
	SubmitFunc   func(ctx context.Context, payload invoice.Payload) mydata.Result
	RetryFunc    func(ctx context.Context, payload invoice.Payload) mydata.Result
	CancelFunc   func(ctx context.Context, req mydata.CancelRequest) mydata.CancelResult

	mu        sync.Mutex
	Validated []invoice.Payload
	Submitted []invoice.Payload
	Retried   []invoice.Payload
	Cancelled []mydata.CancelRequest
}

func (m *MockGateway) Validate(ctx context.Context, payload invoice.Payload) mydata.Result {
	m.mu.Lock()
	m.Validated = append(m.Validated, payload)
	m.mu.Unlock()
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, payload)
	}
	return mydata.Result{OK: true}
}

func (m *MockGateway) Submit(ctx context.Context, payload invoice.Payload) mydata.Result {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, payload)
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, payload)
	}
	return mydata.Result{OK: true, Mark: "MARK-1"}
}

func (m *MockGateway) Retry(ctx context.Context, payload invoice.Payload) mydata.Result {
	m.mu.Lock()
	m.Retried = append(m.Retried, payload)
	m.mu.Unlock()
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, payload)
	}
	return mydata.Result{OK: true, Mark: "MARK-1"}
}

func (m *MockGateway) Cancel(ctx context.Context, req mydata.CancelRequest) mydata.CancelResult {
	m.mu.Lock()
	m.Cancelled = append(m.Cancelled, req)
	m.mu.Unlock()
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, req)
	}
	return mydata.CancelResult{CancelMark: "CANCEL-1"}
}

// Ensure MockGateway implements mydata.Gateway interface.
var _ mydata.Gateway = (*MockGateway)(nil)
