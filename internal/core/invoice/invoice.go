package invoice

import (
	"context"
	"errors"

	"italiancorner/mydata_core/internal/core/customer"
)

// DefaultPaymentMethod is used when an invoice does not name one.
const DefaultPaymentMethod = "cash"

// LineItem is one row of an invoice. UnitPrice includes VAT.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"qty"`
	UnitPrice   float64 `json:"price"`
	VATRate     int     `json:"vatRate"`
}

// Gross returns qty x unitPrice.
func (l LineItem) Gross() float64 {
	return l.Quantity * l.UnitPrice
}

// Invoice is the in-progress document before it is submitted.
// Surcharge is derived from the branch rule; see ComputeSurcharge.
type Invoice struct {
	BranchID          string            `json:"branchId"`
	Date              string            `json:"invoiceDate"`
	Number            string            `json:"invoiceNumber"`
	Customer          customer.Customer `json:"customer"`
	Items             []LineItem        `json:"items"`
	PaymentMethod     string            `json:"paymentMethod,omitempty"`
	Surcharge         float64           `json:"surcharge"`
	SeparateSurcharge bool              `json:"separateSurcharge"`
}

// Nights returns the sum of the item quantities.
func (inv Invoice) Nights() float64 {
	return nights(inv.Items)
}

func nights(items []LineItem) float64 {
	var n float64
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// PaymentMethodOrDefault returns the payment method, falling back to cash.
func (inv Invoice) PaymentMethodOrDefault() string {
	if inv.PaymentMethod == "" {
		return DefaultPaymentMethod
	}
	return inv.PaymentMethod
}

// DraftRepository stores the last invoice draft.
type DraftRepository interface {
	SaveDraft(ctx context.Context, draft Invoice) error
	// LoadDraft returns ErrDraftNotFound when nothing was saved.
	LoadDraft(ctx context.Context) (Invoice, error)
}

var ErrDraftNotFound = errors.New("no saved draft")
