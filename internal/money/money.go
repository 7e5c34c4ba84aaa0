// Package money parses and formats currency amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/validate"
)

// Parse reads a non-negative amount for field, accepting a leading "$" and
// thousands separators. The result is rounded to cents. Malformed input is
// a validation error, never silently zero.
func Parse(field, s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return decimal.Zero, validate.Errorf(field, "is required")
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, validate.Errorf(field, "must be a number (got %q)", s)
	}
	if d.IsNegative() {
		return decimal.Zero, validate.Errorf(field, "must not be negative")
	}
	return d.Round(2), nil
}

// Format renders an amount as dollars with two decimals.
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
