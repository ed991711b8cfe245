package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeriveInstallmentStatus is the pure status rule: PAID once the paid amount
// covers the installment, OVERDUE when unpaid past the due date, PENDING
// otherwise. Due dates compare at day granularity.
func DeriveInstallmentStatus(amount, paid decimal.Decimal, dueDate, today time.Time) InstallmentStatus {
	if paid.GreaterThanOrEqual(amount) {
		return InstallmentPaid
	}
	if DayOf(dueDate).Before(DayOf(today)) {
		return InstallmentOverdue
	}
	return InstallmentPending
}

// DayOf truncates a timestamp to its calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
