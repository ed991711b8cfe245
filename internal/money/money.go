// Package money holds the fixed-point amount conventions of the engine:
// amounts travel as strings on the wire and live as decimal values with at
// most two decimal places everywhere else. Floats never touch money.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/viamundo/backoffice/internal/apperror"
)

// Parse converts a wire amount into a decimal, rejecting anything that is not
// representable in two decimal places.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperror.Validationf("invalid amount format: %q", s)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, apperror.Validationf("amount %s has more than two decimal places", s)
	}
	return d, nil
}

// ParsePositive is Parse plus the strictly-positive rule shared by every
// ledger entry and payment amount.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, apperror.Validationf("amount must be positive, got %s", d)
	}
	return d, nil
}

// FloorZero clamps negative amounts to zero. Debt remainders never report
// negative.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
