// Package money holds the fixed-point helpers used on every price path.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for rupee amounts.
const Places = 2

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse converts a decimal string into a rounded amount.
func Parse(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return Round2(d), nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(raw string) decimal.Decimal {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// Line returns price × quantity rounded to two places.
func Line(price decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(price.Mul(decimal.NewFromInt(int64(quantity))))
}

// Format renders d with exactly two fractional digits, the way amounts are
// shown on the cart and order screens.
func Format(d decimal.Decimal) string {
	return Round2(d).StringFixed(Places)
}
