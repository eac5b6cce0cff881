package invoice

import (
	"context"

	"italiancorner/mydata_core/internal/core/branch"
)

// DocumentKind selects the layout produced by a renderer.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindReceipt DocumentKind = "receipt"
)

// Document is the normalized invoice handed to a DocumentRenderer.
type Document struct {
	Kind    DocumentKind  `json:"kind"`
	Branch  branch.Branch `json:"branch"`
	Invoice Invoice       `json:"invoice"`
	Totals  Amounts       `json:"totals"`
	Mark    string        `json:"mark,omitempty"`
}

// NewDocument normalizes inv for rendering. Totals follow the surcharge mode
// a submission of inv would use, so the document matches the payload.
func NewDocument(kind DocumentKind, b branch.Branch, inv Invoice, mark string) Document {
	totals := SettleTotals(inv.Items, inv.Surcharge, ModeFor(inv, b))
	return Document{Kind: kind, Branch: b, Invoice: inv, Totals: totals, Mark: mark}
}

// DocumentRenderer turns a document into a printable file.
type DocumentRenderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
	// ContentType is the MIME type of the rendered bytes.
	ContentType() string
}
