package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"italiancorner/mydata_core/internal/adapters/kv/memory"
	"italiancorner/mydata_core/internal/adapters/store"
	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/testutil"
)

var december = time.Date(2025, time.December, 3, 10, 0, 0, 0, time.UTC)

func newService(renderer invoice.DocumentRenderer) *Service {
	return NewService(branch.DefaultRegistry(), store.NewDrafts(memory.NewStore()), renderer, false, func() time.Time { return december })
}

func stay(date string, nights float64) invoice.Invoice {
	return invoice.Invoice{
		BranchID:  "villa2",
		Date:      date,
		Number:    "0005",
		Customer:  customer.Customer{Name: "Guest", VAT: "123"},
		Items:     []invoice.LineItem{{Description: "Stay", Quantity: nights, UnitPrice: 100, VATRate: 13}},
		Surcharge: 1000,
	}
}

func TestService_Quote(t *testing.T) {
	svc := newService(nil)

	q, err := svc.Quote(stay("2025-08-10", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Totals.Surcharge != 24 || q.Totals.Gross != 324 || q.Nights != 3 {
		t.Errorf("unexpected quote %+v", q)
	}
	if q.Mode != invoice.ModeAutoLine {
		t.Errorf("expected autoLine, got %s", q.Mode)
	}

	separate := stay("2025-01-10", 3)
	separate.SeparateSurcharge = true
	q, _ = svc.Quote(separate)
	if q.Totals.Surcharge != 6 || q.Totals.Gross != 300 || q.Mode != invoice.ModeSeparateInvoice {
		t.Errorf("unexpected quote %+v", q)
	}

	if _, err := svc.Quote(invoice.Invoice{BranchID: "nope"}); !errors.Is(err, branch.ErrUnknownBranch) {
		t.Errorf("expected ErrUnknownBranch, got %v", err)
	}
}

func TestService_ValidateNeverNil(t *testing.T) {
	svc := newService(nil)
	if errs := svc.Validate(stay("2025-08-10", 1)); errs == nil || len(errs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", errs)
	}
}

func TestService_Payload(t *testing.T) {
	svc := newService(nil)

	p, err := svc.Payload(stay("2025-08-10", 2), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Lines) != 2 || p.Totals.Surcharge != 16 {
		t.Errorf("expected levy line with recomputed amount, got %+v", p)
	}

	p, _ = svc.Payload(stay("2025-08-10", 2), invoice.ModeSurchargeOnly)
	if len(p.Lines) != 1 || p.Totals.Net != 16 {
		t.Errorf("unexpected surcharge-only payload %+v", p)
	}

	if _, err := svc.Payload(stay("2025-08-10", 2), "nonsense"); !errors.Is(err, invoice.ErrUnknownSurchargeMode) {
		t.Errorf("expected ErrUnknownSurchargeMode, got %v", err)
	}
}

func TestService_Preview(t *testing.T) {
	ctx := context.Background()

	if _, _, err := newService(nil).Preview(ctx, stay("2025-08-10", 1), ""); !errors.Is(err, ErrRendererUnavailable) {
		t.Errorf("expected ErrRendererUnavailable, got %v", err)
	}

	var rendered invoice.Document
	renderer := &testutil.MockRenderer{
		Type: "application/pdf",
		RenderFunc: func(_ context.Context, doc invoice.Document) ([]byte, error) {
			rendered = doc
			return []byte("%PDF"), nil
		},
	}
	svc := newService(renderer)

	bad := stay("2025-08-10", 1)
	bad.Items[0].Description = ""
	if _, _, err := svc.Preview(ctx, bad, ""); !errors.Is(err, invoice.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	out, contentType, err := svc.Preview(ctx, stay("2025-08-10", 1), invoice.KindReceipt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "%PDF" || contentType != "application/pdf" {
		t.Errorf("unexpected output %q %q", out, contentType)
	}
	if rendered.Kind != invoice.KindReceipt || rendered.Totals.Surcharge != 8 || rendered.Branch.ID != "villa2" {
		t.Errorf("unexpected document %+v", rendered)
	}
}

func TestService_Drafts(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)

	if _, err := svc.LoadDraft(ctx); !errors.Is(err, invoice.ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
	if err := svc.SaveDraft(ctx, stay("2025-08-10", 4)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := svc.LoadDraft(ctx)
	if err != nil || got.Items[0].Quantity != 4 {
		t.Errorf("unexpected draft %+v, %v", got, err)
	}
}
