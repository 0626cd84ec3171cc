package utils

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// ParsePeriod converts year/month path or query parameters into a Period.
//
// Parameters:
//   - yearStr: The year as a decimal string, e.g. "2025".
//   - monthStr: The month as a decimal string, 1 through 12.
//
// Returns:
//   - The parsed Period, or a ValidationError describing the first bad field.
func ParsePeriod(yearStr, monthStr string) (models.Period, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return models.Period{}, NewValidationErrorf("year must be an integer, got %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return models.Period{}, NewValidationErrorf("month must be an integer, got %q", monthStr)
	}
	period := models.NewPeriod(year, month)
	if err := period.Validate(); err != nil {
		return models.Period{}, NewValidationError(err.Error())
	}
	return period, nil
}

// ParseAmount converts a monetary string into a non-negative decimal.
//
// Parameters:
//   - value: The amount as a decimal string, e.g. "8100.50".
//
// Returns:
//   - The parsed amount, or a ValidationError when the string is not a
//     number or is negative.
func ParseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, NewValidationErrorf("amount must be a decimal number, got %q", value)
	}
	if amount.IsNegative() {
		return decimal.Zero, NewValidationErrorf("amount must not be negative, got %s", amount.String())
	}
	return amount, nil
}
