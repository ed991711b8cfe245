package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/viamundo/backoffice/internal/apperror"
)

// BuildInstallments generates the payment plan of a credit sale.
//
// The financed remainder is split into count installments of
// truncate2(remaining/count); the last installment absorbs the rounding
// remainder so the plan always sums exactly to totalPrice − downPayment.
func BuildInstallments(totalPrice, downPayment decimal.Decimal, count int, freq Frequency, start time.Time) ([]Installment, error) {
	if totalPrice.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validationf("total price must be positive, got %s", totalPrice)
	}
	if downPayment.IsNegative() {
		return nil, apperror.Validationf("down payment cannot be negative")
	}
	if downPayment.GreaterThanOrEqual(totalPrice) {
		return nil, apperror.Validationf("down payment %s must be less than total price %s", downPayment, totalPrice)
	}
	if count < 1 || count > MaxInstallments {
		return nil, apperror.Validationf("installment count must be between 1 and %d, got %d", MaxInstallments, count)
	}

	remaining := totalPrice.Sub(downPayment)
	n := decimal.NewFromInt(int64(count))
	base := remaining.Div(n).Truncate(2)
	last := remaining.Sub(base.Mul(decimal.NewFromInt(int64(count - 1))))

	dates, err := DueDates(freq, start, count)
	if err != nil {
		return nil, err
	}

	installments := make([]Installment, count)
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			amount = last
		}
		installments[i] = Installment{
			PaymentNumber: i + 1,
			DueDate:       dates[i],
			Amount:        amount,
			PaidAmount:    decimal.Zero,
			Status:        InstallmentPending,
		}
	}
	return installments, nil
}
