// Package xlsx writes spreadsheets: the history export and a printable
// rendition of invoice documents.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"italiancorner/mydata_core/internal/core/history"
)

// HistorySheet is the sheet name of the history export.
const HistorySheet = "History"

// ContentType is the MIME type of every file this package writes.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var historyHeader = []any{
	"Date", "Branch", "Number", "Kind", "Customer", "Customer VAT",
	"Net", "VAT", "Gross", "Levy", "Status", "Mark", "Cancel mark", "Error",
}

// WriteHistory writes entries, in the given order, as one row each.
func WriteHistory(w io.Writer, entries []history.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), HistorySheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := writeHeader(f, HistorySheet, historyHeader); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := []any{
			e.Date(), e.BranchID, e.InvoiceNumber, string(e.Kind), e.Customer.Name, e.Customer.VAT,
			e.Totals.Net, e.Totals.VAT, e.Totals.Gross, e.Surcharge,
			string(e.Status), e.Mark, e.CancelMark, e.Error,
		}
		if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(HistorySheet, "A", "N", 14); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}
