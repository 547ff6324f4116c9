// Package money converts whole-baht catalog prices into the minor units payment processors expect.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SatangPerBaht is the THB minor-unit factor.
const SatangPerBaht = 100

var satangFactor = decimal.NewFromInt(SatangPerBaht)

// ToSatang converts a whole-baht amount into satang.
func ToSatang(baht int64) int64 {
	return decimal.NewFromInt(baht).Mul(satangFactor).IntPart()
}

// FromSatang converts satang back to a baht decimal.
func FromSatang(satang int64) decimal.Decimal {
	return decimal.NewFromInt(satang).Div(satangFactor)
}

// LineTotal returns unit price times quantity, rejecting negative inputs and int64 overflow.
func LineTotal(unitPrice int64, quantity int) (int64, error) {
	if unitPrice < 0 || quantity < 0 {
		return 0, fmt.Errorf("line total: negative input (price %d, quantity %d)", unitPrice, quantity)
	}
	total := decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	if !total.IsInteger() || total.GreaterThan(decimal.NewFromInt(maxInt64)) {
		return 0, fmt.Errorf("line total overflows: %s", total.String())
	}
	return total.IntPart(), nil
}

// AddTotals sums non-negative amounts, rejecting int64 overflow.
func AddTotals(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, fmt.Errorf("add totals: negative input (%d, %d)", a, b)
	}
	if a > maxInt64-b {
		return 0, fmt.Errorf("total overflows: %d + %d", a, b)
	}
	return a + b, nil
}

// Format renders a baht amount as "THB 1250.00".
func Format(baht int64) string {
	return "THB " + decimal.NewFromInt(baht).StringFixed(2)
}

const maxInt64 = int64(^uint64(0) >> 1)
