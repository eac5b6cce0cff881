package mydata

import (
	"context"
	"errors"
	"fmt"

	"italiancorner/mydata_core/internal/core/invoice"
)

// Result is the answer of the proxy to a validate, submit or retry call.
// Transport failures are reported as OK=false with the error text.
type Result struct {
	OK    bool   `json:"ok"`
	Mark  string `json:"mark,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failed builds a not-ok result from err.
func Failed(err error) Result {
	return Result{OK: false, Error: err.Error()}
}

// CancelReason is the code sent when a transmitted invoice is cancelled.
type CancelReason string

const (
	// CancelReasonErroneous marks a document issued with wrong data.
	CancelReasonErroneous CancelReason = "1"
	// CancelReasonDuplicate marks a document transmitted twice.
	CancelReasonDuplicate CancelReason = "2"
	// CancelReasonTransactionCancelled marks a sale that did not take place.
	CancelReasonTransactionCancelled CancelReason = "3"
	// CancelReasonWrongCounterparty marks a document issued to the wrong customer.
	CancelReasonWrongCounterparty CancelReason = "4"
)

var ErrInvalidCancelReason = errors.New("invalid cancel reason")

// ParseCancelReason checks code against the known reasons.
func ParseCancelReason(code string) (CancelReason, error) {
	switch r := CancelReason(code); r {
	case CancelReasonErroneous, CancelReasonDuplicate,
		CancelReasonTransactionCancelled, CancelReasonWrongCounterparty:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCancelReason, code)
	}
}

// Label returns a human readable description of the reason.
func (r CancelReason) Label() string {
	switch r {
	case CancelReasonErroneous:
		return "Erroneous document"
	case CancelReasonDuplicate:
		return "Duplicate transmission"
	case CancelReasonTransactionCancelled:
		return "Transaction cancelled"
	case CancelReasonWrongCounterparty:
		return "Wrong counterparty"
	default:
		return string(r)
	}
}

// CancelRequest identifies a transmitted invoice to cancel.
type CancelRequest struct {
	InvoiceNumber string
	BranchID      string
	Reason        CancelReason
}

// CancelResult carries the cancellation mark, or the error reported by the proxy.
type CancelResult struct {
	CancelMark string `json:"cancelMark,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the cancellation was accepted.
func (r CancelResult) OK() bool {
	return r.Error == "" && r.CancelMark != ""
}

// Gateway talks to the myDATA proxy. Implementations never return a transport
// error from Validate, Submit or Retry; failures come back as OK=false.
type Gateway interface {
	Validate(ctx context.Context, payload invoice.Payload) Result
	Submit(ctx context.Context, payload invoice.Payload) Result
	Retry(ctx context.Context, payload invoice.Payload) Result
	Cancel(ctx context.Context, req CancelRequest) CancelResult
}
