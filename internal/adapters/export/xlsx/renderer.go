package xlsx

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"italiancorner/mydata_core/internal/core/invoice"
)

// DocumentSheet is the sheet name of a rendered document.
const DocumentSheet = "Document"

// Renderer lays an invoice document out as a one-sheet workbook.
type Renderer struct{}

var _ invoice.DocumentRenderer = Renderer{}

func (Renderer) ContentType() string {
	return ContentType
}

// Render writes the issuer, the customer, the lines and the totals of doc.
func (Renderer) Render(ctx context.Context, doc invoice.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), DocumentSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	title := "Invoice"
	if doc.Kind == invoice.KindReceipt {
		title = "Receipt"
	}
	issuer := doc.Branch.Issuer
	inv := doc.Invoice

	rows := [][]any{
		{title, inv.Number},
		{"Series", doc.Branch.Series},
		{"Date", inv.Date},
		{"Issuer", issuer.Name},
		{"Issuer VAT", issuer.VAT},
		{"Address", issuer.Address + ", " + issuer.City + " " + issuer.PostalCode},
		{},
		{"Customer", inv.Customer.Name},
		{"Customer VAT", inv.Customer.VAT},
		{"Payment", inv.PaymentMethodOrDefault()},
		{},
		{"Description", "Qty", "Unit price", "VAT %", "Amount"},
	}
	for _, it := range inv.Items {
		rows = append(rows, []any{it.Description, it.Quantity, it.UnitPrice, it.VATRate, it.Gross()})
	}
	rows = append(rows, []any{})
	if doc.Totals.Surcharge > 0 {
		label := invoice.LevyDescription
		if inv.SeparateSurcharge {
			label += " (separate document)"
		}
		rows = append(rows, []any{label, "", "", "", doc.Totals.Surcharge})
	}
	rows = append(rows,
		[]any{"Net", "", "", "", doc.Totals.Net},
		[]any{"VAT", "", "", "", doc.Totals.VAT},
		[]any{"Total", "", "", "", doc.Totals.Gross},
	)
	if doc.Mark != "" {
		rows = append(rows, []any{"MARK", doc.Mark})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(DocumentSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(DocumentSheet, "A", "A", 40); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
