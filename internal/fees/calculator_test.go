package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysLate(t *testing.T) {
	due := date(2024, time.January, 10)

	assert.Equal(t, 5, DaysLate(due, date(2024, time.January, 15)))
	assert.Equal(t, 1, DaysLate(due, date(2024, time.January, 11)))
	assert.Equal(t, 0, DaysLate(due, due))
	assert.Equal(t, 0, DaysLate(due, date(2024, time.January, 5)))
}

func TestDaysLate_IgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2024, time.January, 10, 23, 59, 0, 0, time.UTC)
	returned := time.Date(2024, time.January, 11, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysLate(due, returned))
}

func TestLateFee(t *testing.T) {
	rate := decimal.NewFromFloat(0.50)
	due := date(2024, time.January, 10)

	fee := LateFee(due, date(2024, time.January, 15), rate)
	assert.Equal(t, "2.50", fee.StringFixed(2))
}

func TestLateFee_OnTimeIsZero(t *testing.T) {
	rate := decimal.NewFromFloat(0.50)
	due := date(2024, time.January, 10)

	assert.True(t, LateFee(due, due, rate).IsZero())
	assert.True(t, LateFee(due, date(2024, time.January, 2), rate).IsZero())
}

func TestLateFee_RoundsToTwoPlaces(t *testing.T) {
	rate := decimal.NewFromFloat(0.333)
	due := date(2024, time.January, 10)

	fee := LateFee(due, date(2024, time.January, 13), rate)
	assert.Equal(t, "1.00", fee.StringFixed(2))
}

func TestLateFee_Deterministic(t *testing.T) {
	rate := decimal.NewFromFloat(0.50)
	due := date(2024, time.March, 1)
	returned := date(2024, time.March, 20)

	first := LateFee(due, returned, rate)
	second := LateFee(due, returned, rate)
	assert.True(t, first.Equal(second))
}
