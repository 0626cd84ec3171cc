package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// RateEstimate projects the next period's weekly rate from a weekly-rate
// series ordered oldest to newest. Each method is deterministic and
// side-effect free.
func RateEstimate(method models.ForecastMethod, rates []float64) (float64, error) {
	switch method {
	case models.MethodSimple:
		return simpleRate(rates)
	case models.MethodWeighted:
		return weightedRate(rates)
	case models.MethodTrending:
		return trendingRate(rates)
	default:
		return 0, fmt.Errorf("forecast: unknown method %q", method)
	}
}

// ForecastValue runs one method over the weekly-rate series and converts the
// projected rate into a monetary amount for the target month, rounded to
// cents.
func ForecastValue(method models.ForecastMethod, rates []float64, target time.Month) (decimal.Decimal, error) {
	rate, err := RateEstimate(method, rates)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := MonthlyValue(decimal.NewFromFloat(rate), target)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Round(2), nil
}

// simpleRate is the arithmetic mean of all weekly rates.
func simpleRate(rates []float64) (float64, error) {
	if len(rates) == 0 {
		return 0, ErrInsufficientData
	}
	return meanFloat64(rates), nil
}

// weightedRate assigns linearly increasing weights by recency (oldest 1,
// newest N), normalized to sum 1.
func weightedRate(rates []float64) (float64, error) {
	n := len(rates)
	if n == 0 {
		return 0, ErrInsufficientData
	}
	totalWeight := float64(n*(n+1)) / 2
	var sum float64
	for i, r := range rates {
		sum += r * float64(i+1) / totalWeight
	}
	return sum, nil
}

// trendingRate fits an ordinary least-squares line over the series indexed
// 0..n-1 and projects it one step past the last observation. Projections are
// floored at zero since accrual spend cannot go negative.
func trendingRate(rates []float64) (float64, error) {
	n := len(rates)
	if n < 2 {
		return 0, ErrInsufficientData
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, r := range rates {
		x := float64(i)
		sumX += x
		sumY += r
		sumXY += x * r
		sumXX += x * x
	}

	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0, ErrInsufficientData
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf

	projected := intercept + slope*nf
	if projected < 0 {
		projected = 0
	}
	return projected, nil
}

func meanFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevFloat64 is the population standard deviation (divide by N), matching
// the dispersion measure the confidence tiers are calibrated against.
func stdDevFloat64(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mean := meanFloat64(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}
