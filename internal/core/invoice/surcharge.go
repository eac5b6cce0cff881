package invoice

import (
	"time"

	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/money"
)

// LevyDescription is the description of the synthetic surcharge line.
const LevyDescription = "Climate-crisis resilience levy"

// ComputeSurcharge returns the accommodation levy for an invoice dated date.
func ComputeSurcharge(b branch.Branch, date string, items []LineItem) float64 {
	return ComputeSurchargeAt(b, date, items, time.Now())
}

// ComputeSurchargeAt is ComputeSurcharge with an explicit clock, used when the
// invoice date cannot be parsed and the season falls back to the current month.
func ComputeSurchargeAt(b branch.Branch, date string, items []LineItem, now time.Time) float64 {
	if !b.SurchargeEligible() {
		return 0
	}
	rule := *b.Revenue.Surcharge
	if !rule.InEffect(date) {
		return 0
	}

	var value float64
	switch rule.Mode {
	case branch.SurchargePerNight:
		value = rule.Rate * nights(items)
	case branch.SurchargeSeasonalPerNight:
		rate := rule.WinterRate
		if isSummer(seasonMonth(date, now)) {
			rate = rule.SummerRate
		}
		value = rate * nights(items)
	case branch.SurchargePercentNet:
		var gross float64
		for _, it := range items {
			gross += it.Gross()
		}
		value = rule.Percent * gross
	case branch.SurchargeFlatPerInvoice:
		value = rule.Amount
	}
	return money.Round2(value)
}

func seasonMonth(date string, now time.Time) time.Month {
	if d, err := time.Parse(branch.DateLayout, date); err == nil {
		return d.Month()
	}
	return now.Month()
}

// April to October inclusive.
func isSummer(m time.Month) bool {
	return m >= time.April && m <= time.October
}

// ApplySurcharge returns inv with the levy recomputed for its branch, date
// and items. The separate flag is dropped for branches without a levy.
func ApplySurcharge(inv Invoice, b branch.Branch, now time.Time) Invoice {
	inv.Surcharge = ComputeSurchargeAt(b, inv.Date, inv.Items, now)
	if !b.SurchargeEligible() {
		inv.SeparateSurcharge = false
	}
	return inv
}

// ModeFor picks the payload mode for a regular submission of inv.
func ModeFor(inv Invoice, b branch.Branch) SurchargeMode {
	if b.SurchargeEligible() && inv.SeparateSurcharge {
		return ModeSeparateInvoice
	}
	return ModeAutoLine
}
