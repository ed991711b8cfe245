package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtLight is the traffic-light urgency of a supplier debt.
type DebtLight string

const (
	LightSettled DebtLight = "settled" // nothing left to pay, deadline irrelevant
	LightGray    DebtLight = "gray"    // no deadline set
	LightGreen   DebtLight = "green"   // comfortably before the deadline
	LightYellow  DebtLight = "yellow"  // deadline within the warning window
	LightRed     DebtLight = "red"     // deadline has passed
)

// TrafficLight derives the urgency of a debt from its deadline and remainder.
// A settled debt reports settled no matter what the deadline says.
func TrafficLight(deadline *time.Time, remaining decimal.Decimal, today time.Time, warningDays int) DebtLight {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return LightSettled
	}
	if deadline == nil {
		return LightGray
	}
	days := daysUntil(today, *deadline)
	switch {
	case days < 0:
		return LightRed
	case days <= warningDays:
		return LightYellow
	default:
		return LightGreen
	}
}

// daysUntil counts whole calendar days from today to the deadline; negative
// once the deadline is in the past.
func daysUntil(today, deadline time.Time) int {
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
