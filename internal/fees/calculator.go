// Package fees computes late-return fees.
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDailyRate is the fallback charge per day late.
var DefaultDailyRate = decimal.NewFromFloat(0.50)

// DaysLate counts whole calendar days between the due date and the return
// date. Returns 0 for on-time or early returns.
func DaysLate(dueDate, returnDate time.Time) int {
	due := truncateToDate(dueDate)
	returned := truncateToDate(returnDate)
	days := int(returned.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// LateFee is a pure function of the due date, return date and daily rate,
// rounded to two decimal places. Deterministic given its inputs.
func LateFee(dueDate, returnDate time.Time, dailyRate decimal.Decimal) decimal.Decimal {
	days := DaysLate(dueDate, returnDate)
	if days == 0 {
		return decimal.Zero
	}
	return dailyRate.Mul(decimal.NewFromInt(int64(days))).Round(2)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
