package invoice

import (
	"github.com/shopspring/decimal"

	"italiancorner/mydata_core/internal/core/money"
)

// Totals holds unrounded net and VAT sums.
type Totals struct {
	Net float64 `json:"net"`
	VAT float64 `json:"vat"`
}

// Rounded returns the totals rounded to the cent, with gross derived from the
// rounded parts.
func (t Totals) Rounded() Amounts {
	net := money.Round2(t.Net)
	vat := money.Round2(t.VAT)
	return Amounts{Net: net, VAT: vat, Gross: money.Add(net, vat)}
}

// Amounts are cent-rounded totals as shown to users and sent on the wire.
type Amounts struct {
	Net       float64 `json:"net"`
	VAT       float64 `json:"vat"`
	Gross     float64 `json:"gross"`
	Surcharge float64 `json:"surcharge"`
}

// Breakdown splits a VAT-inclusive line into gross, net and VAT parts.
func Breakdown(it LineItem) (gross, net, vat float64) {
	gross = it.Gross()
	net = gross / (1 + float64(it.VATRate)/100)
	return gross, net, gross - net
}

// ComputeTotals sums the net and VAT parts of all items without rounding.
func ComputeTotals(items []LineItem) Totals {
	var t Totals
	for _, it := range items {
		_, net, vat := Breakdown(it)
		t.Net += net
		t.VAT += vat
	}
	return t
}

// SettleTotals returns the cent-rounded totals of a document built from items
// and levy in the given mode. Net and VAT are the sums of the per-line rounded
// amounts, so the lines of a payload always add up to its totals and a quote
// shows exactly what is sent. In autoLine mode the levy is part of net; in
// separateInvoice mode it is left out; surchargeOnly carries the levy alone.
// Gross is always net plus VAT.
func SettleTotals(items []LineItem, levy float64, mode SurchargeMode) Amounts {
	surcharge := money.Cents(levy)
	net, vat := decimal.Zero, decimal.Zero
	if mode != ModeSurchargeOnly {
		for _, it := range items {
			_, lineNet, lineVat := Breakdown(it)
			net = net.Add(money.Cents(lineNet))
			vat = vat.Add(money.Cents(lineVat))
		}
	}
	if mode != ModeSeparateInvoice && surcharge.IsPositive() {
		net = net.Add(surcharge)
	}
	return Amounts{
		Net:       net.InexactFloat64(),
		VAT:       vat.InexactFloat64(),
		Gross:     net.Add(vat).InexactFloat64(),
		Surcharge: surcharge.InexactFloat64(),
	}
}
