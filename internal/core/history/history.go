package history

import (
	"context"
	"errors"
	"time"

	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/invoice"
)

// Status is the outcome recorded for a submission attempt.
type Status string

const (
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Kind separates regular invoices from standalone levy documents.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindSurcharge Kind = "surcharge"
)

// Entry is the snapshot of an invoice taken when submission was attempted.
// Only Status, the cancel fields and DeletedAt change after it is written.
type Entry struct {
	ID                string             `json:"id"`
	Kind              Kind               `json:"kind"`
	BranchID          string             `json:"branchId"`
	InvoiceNumber     string             `json:"invoiceNumber"`
	InvoiceDate       string             `json:"invoiceDate"`
	IssueDate         string             `json:"issueDate,omitempty"`
	Customer          customer.Customer  `json:"customer"`
	Items             []invoice.LineItem `json:"items"`
	PaymentMethod     string             `json:"paymentMethod"`
	Surcharge         float64            `json:"surcharge"`
	SeparateSurcharge bool               `json:"separateSurcharge"`
	Totals            invoice.Amounts    `json:"totals"`
	Status            Status             `json:"status"`
	Mark              string             `json:"mark,omitempty"`
	Error             string             `json:"error,omitempty"`
	CancelMark        string             `json:"cancelMark,omitempty"`
	CancelReason      string             `json:"cancelReason,omitempty"`
	CancelledAt       *time.Time         `json:"cancelledAt,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
	DeletedAt         *time.Time         `json:"deletedAt,omitempty"`
}

// Sent reports whether the entry was accepted by myDATA and not cancelled.
func (e Entry) Sent() bool {
	return e.Status == StatusSent
}

// Date returns the issue date, falling back to the invoice date.
func (e Entry) Date() string {
	if e.IssueDate != "" {
		return e.IssueDate
	}
	return e.InvoiceDate
}

// Invoice rebuilds the draft the entry was created from.
func (e Entry) Invoice() invoice.Invoice {
	return invoice.Invoice{
		BranchID:          e.BranchID,
		Date:              e.InvoiceDate,
		Number:            e.InvoiceNumber,
		Customer:          e.Customer,
		Items:             append([]invoice.LineItem(nil), e.Items...),
		PaymentMethod:     e.PaymentMethod,
		Surcharge:         e.Surcharge,
		SeparateSurcharge: e.SeparateSurcharge,
	}
}

var (
	ErrNotFound = errors.New("history entry not found")
)

// Ledger is the durable submission log and its trash.
// List and ListTrash return newest entries first.
type Ledger interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	// Update applies fn to the active entry with the given id and persists the result.
	Update(ctx context.Context, id string, fn func(*Entry) error) (Entry, error)
	MoveToTrash(ctx context.Context, id string, at time.Time) (Entry, error)
	Restore(ctx context.Context, id string) (Entry, error)
	Purge(ctx context.Context, id string) error
	ListTrash(ctx context.Context) ([]Entry, error)
}

// ForBranch filters entries by branch, keeping their order.
func ForBranch(entries []Entry, branchID string) []Entry {
	if branchID == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.BranchID == branchID {
			out = append(out, e)
		}
	}
	return out
}
