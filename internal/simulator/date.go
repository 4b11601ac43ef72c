package simulator

import (
	"time"

	"payoff/internal/core"
)

// DebtFreeDate returns now + result.TotalMonths. The day of month is clamped
// to the last day of the target month, so Jan 31 + 1 month is Feb 28/29.
// ok is false when the plan did not converge; the date is then only the
// month cap and should not be shown as a payoff date.
func DebtFreeDate(result core.SimulationResult, now time.Time) (date time.Time, ok bool) {
	return AddMonths(now, result.TotalMonths), result.Converged
}

// AddMonths adds n calendar months to t without overflowing into the
// following month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
