package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finworks/accrual-engine-go/internal/models"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		rates    []float64
		expected models.TrendDirection
	}{
		{
			name:     "empty series is flat",
			rates:    nil,
			expected: models.TrendFlat,
		},
		{
			name:     "single point is flat",
			rates:    []float64{2000},
			expected: models.TrendFlat,
		},
		{
			name:     "steady climb",
			rates:    []float64{1000, 1100, 1250, 1400},
			expected: models.TrendRising,
		},
		{
			name:     "late uptick",
			rates:    []float64{2000, 2000, 2000, 2100},
			expected: models.TrendRising,
		},
		{
			name:     "steady decline",
			rates:    []float64{2100, 2050, 2000, 1900},
			expected: models.TrendFalling,
		},
		{
			name:     "noise inside the tolerance band",
			rates:    []float64{2000, 2010, 1995, 2005},
			expected: models.TrendFlat,
		},
		{
			name:     "all zeros",
			rates:    []float64{0, 0, 0, 0},
			expected: models.TrendFlat,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyTrend(tc.rates))
		})
	}
}
