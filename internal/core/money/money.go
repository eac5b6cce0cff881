package money

import "github.com/shopspring/decimal"

// Round2 rounds an amount to the cent, half away from zero.
// The float is first converted through its shortest decimal representation,
// so values such as 1.005 round up instead of falling to 1.00 because of
// binary error. For non-negative amounts this is the same as
// floor(x*100 + 0.5 + eps) / 100.
func Round2(x float64) float64 {
	v, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return v
}

// Cents converts an amount to a decimal rounded to the cent.
func Cents(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}

// Sum adds amounts after rounding each one to the cent.
// The result is exact: no binary drift accumulates across the terms.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(Cents(a))
	}
	v, _ := total.Float64()
	return v
}

// Add returns a+b where both operands are already cent-rounded.
func Add(a, b float64) float64 {
	v, _ := Cents(a).Add(Cents(b)).Float64()
	return v
}
