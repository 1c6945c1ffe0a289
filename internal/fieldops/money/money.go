// Package money centralizes decimal arithmetic for document amounts. Amounts
// are stored as numeric in Postgres, scanned as text, and rounded to cents at
// every computation boundary.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FromText parses a numeric column scanned as text. An empty string maps to
// zero so nullable columns scan cleanly.
func FromText(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return d, nil
}

// Line computes quantity * unitPrice rounded to cents.
func Line(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// Tax computes amount * rate% rounded to cents.
func Tax(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Sum adds amounts without intermediate rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
