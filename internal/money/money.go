// Package money holds the decimal helpers shared by cart, order and bill code.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const Symbol = "₹"

var hundred = decimal.NewFromInt(100)

// Format renders an amount with the rupee sign and two decimals.
func Format(d decimal.Decimal) string {
	return Symbol + d.StringFixed(2)
}

// Parse reads a user supplied amount. Surrounding whitespace and a leading
// currency sign are tolerated.
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), Symbol))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ToMinor converts a major-unit amount to minor units (paise), rounding
// half away from zero.
func ToMinor(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func FromMinor(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Div(hundred)
}
