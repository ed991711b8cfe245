package domain

import (
	"time"

	"github.com/viamundo/backoffice/internal/apperror"
)

// EndOfMonth returns the last calendar day of t's month.
func EndOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// NextQuincenalDate steps a reference date to the next quincenal due date:
// the 15th of the current month when the day is still before the 15th, the
// last day of the current month when not already on or past it, otherwise
// the 15th of the next month.
func NextQuincenalDate(from time.Time) time.Time {
	eom := EndOfMonth(from)
	switch {
	case from.Day() < 15:
		return time.Date(from.Year(), from.Month(), 15, 0, 0, 0, 0, from.Location())
	case from.Day() < eom.Day():
		return eom
	default:
		next := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location()).AddDate(0, 1, 0)
		return time.Date(next.Year(), next.Month(), 15, 0, 0, 0, 0, from.Location())
	}
}

// DueDates produces the count due dates of a plan starting at start.
// Quincenal applies NextQuincenalDate iteratively; mensual takes the last day
// of the month i months after start, i = 0..count-1.
func DueDates(freq Frequency, start time.Time, count int) ([]time.Time, error) {
	dates := make([]time.Time, 0, count)
	switch freq {
	case FrequencyQuincenal:
		d := start
		for i := 0; i < count; i++ {
			d = NextQuincenalDate(d)
			dates = append(dates, d)
		}
	case FrequencyMensual:
		for i := 0; i < count; i++ {
			// time.Date normalizes month overflow, so stepping from the
			// first of the month is safe for any start day.
			month := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, start.Location())
			dates = append(dates, EndOfMonth(month))
		}
	default:
		return nil, apperror.Validationf("invalid frequency %q", freq)
	}
	return dates, nil
}
