// Package money holds the decimal conventions shared by the draft builder
// and the backend client. Monetary values are decimal.Decimal end to end;
// rounding to two places happens only when a value leaves the process.
package money

import "github.com/shopspring/decimal"

// Round2 rounds half-up to two decimal places. Applied at the presentation
// boundary only; intermediate arithmetic keeps full precision.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders a monetary value with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// VATPortion returns amount * rate/100 at full precision.
func VATPortion(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100))
}
