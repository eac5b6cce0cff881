package testutil

import (
	"context"

	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/invoice"
)

// MockDirectory is a mock implementation of customer.Directory for testing.
type MockDirectory struct {
	LookupByVATFunc func(ctx context.Context, vat string) (*customer.Record, error)
}

// LookupByVAT calls the mock function if set, otherwise reports the VAT as unknown.
func (m *MockDirectory) LookupByVAT(ctx context.Context, vat string) (*customer.Record, error) {
	if m.LookupByVATFunc != nil {
		return m.LookupByVATFunc(ctx, vat)
	}
	return nil, customer.ErrRecordNotFound
}

// MockRenderer is a mock implementation of invoice.DocumentRenderer for testing.
type MockRenderer struct {
	RenderFunc func(ctx context.Context, doc invoice.Document) ([]byte, error)
	Type       string
}

// Render calls the mock function if set, otherwise returns the invoice number.
func (m *MockRenderer) Render(ctx context.Context, doc invoice.Document) ([]byte, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, doc)
	}
	return []byte(doc.Invoice.Number), nil
}

func (m *MockRenderer) ContentType() string {
	if m.Type == "" {
		return "text/plain"
	}
	return m.Type
}

var (
	_ customer.Directory       = (*MockDirectory)(nil)
	_ invoice.DocumentRenderer = (*MockRenderer)(nil)
)
