package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finworks/accrual-engine-go/internal/models"
)

func TestSimpleRate(t *testing.T) {
	tests := []struct {
		name     string
		rates    []float64
		expected float64
	}{
		{
			name:     "single observation",
			rates:    []float64{2000},
			expected: 2000,
		},
		{
			name:     "flat series",
			rates:    []float64{2000, 2000, 2000},
			expected: 2000,
		},
		{
			name:     "mixed series",
			rates:    []float64{2000, 2000, 2000, 2100},
			expected: 2025,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := RateEstimate(models.MethodSimple, tc.rates)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, rate, 1e-9)
		})
	}
}

func TestSimpleRate_Empty(t *testing.T) {
	_, err := RateEstimate(models.MethodSimple, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestWeightedRate(t *testing.T) {
	tests := []struct {
		name     string
		rates    []float64
		expected float64
	}{
		{
			name:     "single observation equals itself",
			rates:    []float64{1500},
			expected: 1500,
		},
		{
			name:     "newer observation dominates",
			rates:    []float64{1000, 3000},
			expected: 1000*(1.0/3.0) + 3000*(2.0/3.0),
		},
		{
			name:     "four point series",
			rates:    []float64{2000, 2000, 2000, 2100},
			expected: (2000*1 + 2000*2 + 2000*3 + 2100*4) / 10.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := RateEstimate(models.MethodWeighted, tc.rates)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, rate, 1e-9)
		})
	}
}

func TestWeightedRate_StaysWithinObservedRange(t *testing.T) {
	series := [][]float64{
		{1200, 900, 1500, 1100},
		{10, 10, 10},
		{5000, 100},
		{42},
	}

	for _, rates := range series {
		rate, err := RateEstimate(models.MethodWeighted, rates)
		require.NoError(t, err)

		minRate, maxRate := rates[0], rates[0]
		for _, r := range rates {
			if r < minRate {
				minRate = r
			}
			if r > maxRate {
				maxRate = r
			}
		}
		assert.GreaterOrEqual(t, rate, minRate)
		assert.LessOrEqual(t, rate, maxRate)
	}
}

func TestWeightedRate_Empty(t *testing.T) {
	_, err := RateEstimate(models.MethodWeighted, []float64{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrendingRate(t *testing.T) {
	tests := []struct {
		name     string
		rates    []float64
		expected float64
	}{
		{
			name:     "two points extend the line exactly",
			rates:    []float64{2, 4},
			expected: 6,
		},
		{
			name:     "flat series projects flat",
			rates:    []float64{5, 5, 5},
			expected: 5,
		},
		{
			name:     "gentle rise",
			rates:    []float64{2000, 2000, 2000, 2100},
			expected: 2100,
		},
		{
			name:     "steep decline floors at zero",
			rates:    []float64{4, 1},
			expected: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := RateEstimate(models.MethodTrending, tc.rates)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, rate, 1e-9)
		})
	}
}

func TestTrendingRate_TwoPointFitIsExact(t *testing.T) {
	// With exactly two observations the fitted line passes through both.
	rates := []float64{1800, 2200}
	slope := rates[1] - rates[0]
	intercept := rates[0]

	rate, err := RateEstimate(models.MethodTrending, rates)
	require.NoError(t, err)
	assert.InDelta(t, intercept+slope*2, rate, 1e-9)
}

func TestTrendingRate_InsufficientData(t *testing.T) {
	_, err := RateEstimate(models.MethodTrending, []float64{2000})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = RateEstimate(models.MethodTrending, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRateEstimate_UnknownMethod(t *testing.T) {
	_, err := RateEstimate(models.ForecastMethod("arima"), []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestRateEstimate_Deterministic(t *testing.T) {
	rates := []float64{1234.5, 1100.25, 1400, 1320.75}
	for _, method := range models.AllMethods() {
		first, err := RateEstimate(method, rates)
		require.NoError(t, err)
		second, err := RateEstimate(method, rates)
		require.NoError(t, err)
		assert.Equal(t, first, second, "method %s is not deterministic", method)
	}
}

func TestForecastValue_SimpleMay(t *testing.T) {
	// Weekly rates from {Jan:10000, Feb:8000, Mar:8000, Apr:10500}.
	rates := []float64{2000, 2000, 2000, 2100}

	value, err := ForecastValue(models.MethodSimple, rates, time.May)
	require.NoError(t, err)
	assert.Equal(t, "8100", value.String(), "mean 2025/week over a four-week May")
}

func TestForecastValue_InvalidTargetMonth(t *testing.T) {
	_, err := ForecastValue(models.MethodSimple, []float64{2000}, time.Month(0))
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
