// Package forecast implements the weekly-normalized forecasting engine:
// calendar week mapping, the three estimation methods, confidence
// classification and per-category aggregation.
package forecast

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidMonth is returned for month values outside January..December.
	ErrInvalidMonth = errors.New("forecast: month out of range")
	// ErrInsufficientData is returned when a method has fewer observations
	// than it requires.
	ErrInsufficientData = errors.New("forecast: insufficient observations")
)

// WeeksInMonth returns the calendar week count attributed to a month under
// the 4-4-5 accounting calendar: the first month of each quarter (January,
// April, July, October) carries five weeks, every other month four.
func WeeksInMonth(m time.Month) (int, error) {
	if m < time.January || m > time.December {
		return 0, ErrInvalidMonth
	}
	switch m {
	case time.January, time.April, time.July, time.October:
		return 5, nil
	default:
		return 4, nil
	}
}

// WeeklyRate converts a monthly amount into its weekly rate by dividing by
// the month's week count.
func WeeklyRate(amount decimal.Decimal, m time.Month) (decimal.Decimal, error) {
	weeks, err := WeeksInMonth(m)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(decimal.NewFromInt(int64(weeks))), nil
}

// MonthlyValue converts a weekly rate back to a monthly amount for the
// target month. WeeklyRate and MonthlyValue round-trip for the same month.
func MonthlyValue(rate decimal.Decimal, target time.Month) (decimal.Decimal, error) {
	weeks, err := WeeksInMonth(target)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Mul(decimal.NewFromInt(int64(weeks))), nil
}
