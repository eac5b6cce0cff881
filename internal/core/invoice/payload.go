package invoice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/money"
)

// SurchargeMode decides how the levy is accounted for in a payload.
type SurchargeMode string

const (
	// ModeAutoLine appends the levy as a zero-VAT line of the same document.
	ModeAutoLine SurchargeMode = "autoLine"
	// ModeSeparateInvoice leaves the levy out; it is issued later on its own.
	ModeSeparateInvoice SurchargeMode = "separateInvoice"
	// ModeSurchargeOnly builds a document holding only the levy line.
	ModeSurchargeOnly SurchargeMode = "surchargeOnly"
)

// Valid reports whether m is one of the known modes.
func (m SurchargeMode) Valid() bool {
	switch m {
	case ModeAutoLine, ModeSeparateInvoice, ModeSurchargeOnly:
		return true
	}
	return false
}

var ErrUnknownSurchargeMode = errors.New("unknown surcharge mode")

// Counterparty is the customer block of the payload header.
type Counterparty struct {
	Name    string `json:"name"`
	VAT     string `json:"vat"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

type Header struct {
	Series        string        `json:"series"`
	AA            string        `json:"aa"`
	IssueDate     string        `json:"issueDate"`
	DocType       string        `json:"docType"`
	Issuer        branch.Issuer `json:"issuer"`
	Counterparty  Counterparty  `json:"counterparty"`
	PaymentMethod string        `json:"paymentMethod"`
}

type Line struct {
	LineNumber            int     `json:"lineNumber"`
	Description           string  `json:"description"`
	Quantity              float64 `json:"qty"`
	UnitPrice             float64 `json:"unitPrice"`
	NetAmount             float64 `json:"netAmount"`
	VATCategory           string  `json:"vatCategory"`
	VATAmount             float64 `json:"vatAmount"`
	RevenueClassification string  `json:"revenueClassification"`
}

type Meta struct {
	BranchID string `json:"branchId"`
	Sandbox  bool   `json:"sandbox"`
}

// Payload is the wire document sent to the myDATA proxy. It is rebuilt for
// every submission attempt and never modified afterwards.
type Payload struct {
	Header Header  `json:"header"`
	Lines  []Line  `json:"lines"`
	Totals Amounts `json:"totals"`
	Meta   Meta    `json:"meta"`
}

// BuildPayload assembles the wire document for inv in the given mode.
// Totals come from SettleTotals, so summing the lines reproduces them.
func BuildPayload(inv Invoice, b branch.Branch, mode SurchargeMode, sandbox bool) (Payload, error) {
	if !mode.Valid() {
		return Payload{}, fmt.Errorf("%w: %q", ErrUnknownSurchargeMode, mode)
	}

	surcharge := money.Cents(inv.Surcharge)
	var lines []Line

	if mode != ModeSurchargeOnly {
		lines = make([]Line, 0, len(inv.Items)+1)
		for i, it := range inv.Items {
			_, lineNet, lineVat := Breakdown(it)
			lines = append(lines, Line{
				LineNumber:            i + 1,
				Description:           it.Description,
				Quantity:              it.Quantity,
				UnitPrice:             it.UnitPrice,
				NetAmount:             money.Round2(lineNet),
				VATCategory:           b.VATCategory(it.VATRate),
				VATAmount:             money.Round2(lineVat),
				RevenueClassification: b.E3(),
			})
		}
	}

	if mode != ModeSeparateInvoice && surcharge.IsPositive() {
		lines = append(lines, levyLine(len(lines)+1, surcharge, b))
	}
	if lines == nil {
		lines = []Line{}
	}

	return Payload{
		Header: Header{
			Series:    b.Series,
			AA:        inv.Number,
			IssueDate: inv.Date,
			DocType:   b.Revenue.DocumentType,
			Issuer:    b.Issuer,
			Counterparty: Counterparty{
				Name:    inv.Customer.Name,
				VAT:     inv.Customer.VAT,
				Email:   inv.Customer.Email,
				Address: inv.Customer.Address,
				City:    inv.Customer.City,
			},
			PaymentMethod: inv.PaymentMethodOrDefault(),
		},
		Lines:  lines,
		Totals: SettleTotals(inv.Items, inv.Surcharge, mode),
		Meta:   Meta{BranchID: inv.BranchID, Sandbox: sandbox},
	}, nil
}

func levyLine(number int, amount decimal.Decimal, b branch.Branch) Line {
	v := amount.InexactFloat64()
	return Line{
		LineNumber:            number,
		Description:           LevyDescription,
		Quantity:              1,
		UnitPrice:             v,
		NetAmount:             v,
		VATCategory:           b.VATCategory(0),
		VATAmount:             0,
		RevenueClassification: b.E3Surcharge(),
	}
}
