package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/invoice"
)

// ErrRendererUnavailable is returned by Preview when no renderer is configured.
var ErrRendererUnavailable = errors.New("document renderer is not configured")

// Service holds the pure invoice operations the editor calls while a draft
// is being built: quoting, validation, payload building, preview and drafts.
type Service struct {
	registry *branch.Registry
	drafts   invoice.DraftRepository
	renderer invoice.DocumentRenderer
	sandbox  bool
	now      func() time.Time
}

// NewService creates an invoice service. renderer may be nil.
func NewService(registry *branch.Registry, drafts invoice.DraftRepository, renderer invoice.DocumentRenderer, sandbox bool, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		registry: registry,
		drafts:   drafts,
		renderer: renderer,
		sandbox:  sandbox,
		now:      now,
	}
}

// Quote is the live summary shown next to a draft.
type Quote struct {
	Totals invoice.Amounts       `json:"totals"`
	Nights float64               `json:"nights"`
	Mode   invoice.SurchargeMode `json:"mode"`
}

// Prepare recomputes the derived levy of inv for its branch.
func (s *Service) Prepare(inv invoice.Invoice) (invoice.Invoice, branch.Branch, error) {
	b, err := s.registry.Lookup(inv.BranchID)
	if err != nil {
		return inv, branch.Branch{}, err
	}
	return invoice.ApplySurcharge(inv, b, s.now()), b, nil
}

// Quote computes the rounded totals and levy of a draft.
func (s *Service) Quote(inv invoice.Invoice) (Quote, error) {
	inv, b, err := s.Prepare(inv)
	if err != nil {
		return Quote{}, err
	}
	doc := invoice.NewDocument(invoice.KindInvoice, b, inv, "")
	return Quote{Totals: doc.Totals, Nights: inv.Nights(), Mode: invoice.ModeFor(inv, b)}, nil
}

// Validate returns every problem found in inv. An empty slice means valid.
func (s *Service) Validate(inv invoice.Invoice) []string {
	errs := invoice.Validate(inv, s.registry)
	if errs == nil {
		errs = []string{}
	}
	return errs
}

// Payload builds the wire document for inv. An empty mode picks the mode a
// submission would use.
func (s *Service) Payload(inv invoice.Invoice, mode invoice.SurchargeMode) (invoice.Payload, error) {
	inv, b, err := s.Prepare(inv)
	if err != nil {
		return invoice.Payload{}, err
	}
	if mode == "" {
		mode = invoice.ModeFor(inv, b)
	}
	return invoice.BuildPayload(inv, b, mode, s.sandbox)
}

// Preview validates inv and renders it. It goes through the same validation
// as a submission.
func (s *Service) Preview(ctx context.Context, inv invoice.Invoice, kind invoice.DocumentKind) ([]byte, string, error) {
	if err := invoice.Check(inv, s.registry); err != nil {
		return nil, "", err
	}
	if s.renderer == nil {
		return nil, "", ErrRendererUnavailable
	}
	inv, b, err := s.Prepare(inv)
	if err != nil {
		return nil, "", err
	}
	if kind == "" {
		kind = invoice.KindInvoice
	}

	out, err := s.renderer.Render(ctx, invoice.NewDocument(kind, b, inv, ""))
	if err != nil {
		return nil, "", fmt.Errorf("render document: %w", err)
	}
	return out, s.renderer.ContentType(), nil
}

func (s *Service) SaveDraft(ctx context.Context, draft invoice.Invoice) error {
	return s.drafts.SaveDraft(ctx, draft)
}

func (s *Service) LoadDraft(ctx context.Context) (invoice.Invoice, error) {
	return s.drafts.LoadDraft(ctx)
}
