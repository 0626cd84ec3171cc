package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	assert.Error(t, err)
	assert.Equal(t, "validation failed", err.Error())

	// Check that it's the correct type
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", validationErr.Message)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("month must be an integer, got %q", "May")

	assert.Error(t, err)
	assert.Equal(t, `month must be an integer, got "May"`, err.Error())

	// Check that it's the correct type
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, `month must be an integer, got "May"`, validationErr.Message)
}

func TestIsValidationError(t *testing.T) {
	direct := NewValidationError("bad input")
	wrapped := fmt.Errorf("rejecting request: %w", direct)
	other := errors.New("connection refused")

	assert.True(t, IsValidationError(direct))
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsValidationError(other))
	assert.False(t, IsValidationError(nil))
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name      string
		year      string
		month     string
		wantYear  int
		wantMonth time.Month
		wantErr   string
	}{
		{name: "valid period", year: "2025", month: "5", wantYear: 2025, wantMonth: time.May},
		{name: "zero padded month", year: "2025", month: "01", wantYear: 2025, wantMonth: time.January},
		{name: "non numeric year", year: "twenty", month: "5", wantErr: "year must be an integer"},
		{name: "non numeric month", year: "2025", month: "May", wantErr: "month must be an integer"},
		{name: "month out of range", year: "2025", month: "13", wantErr: "month out of range"},
		{name: "month zero", year: "2025", month: "0", wantErr: "month out of range"},
		{name: "year out of range", year: "1500", month: "5", wantErr: "year out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := ParsePeriod(tt.year, tt.month)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, period.Year)
			assert.Equal(t, tt.wantMonth, period.Month)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr string
	}{
		{name: "integer", value: "8100", want: "8100"},
		{name: "two decimal places", value: "8100.50", want: "8100.5"},
		{name: "zero", value: "0", want: "0"},
		{name: "not a number", value: "lots", wantErr: "must be a decimal number"},
		{name: "negative", value: "-12.50", wantErr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseAmount(tt.value)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amount.String())
		})
	}
}
