package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// CV thresholds separating the confidence tiers.
const (
	cvHighCeiling   = 0.2
	cvMediumCeiling = 0.5
)

// Classify derives a confidence tier from the dispersion of the raw
// monetary series (pre-normalization). The coefficient of variation uses the
// population standard deviation. Fewer than two observations, or a zero
// mean, force Low: an undefined CV is treated as the worst case so the
// pipeline stays total over all inputs.
func Classify(amounts []decimal.Decimal) models.ConfidenceTier {
	if len(amounts) < 2 {
		return models.ConfidenceLow
	}

	values := make([]float64, len(amounts))
	for i, a := range amounts {
		values[i] = a.InexactFloat64()
	}

	mean := meanFloat64(values)
	if mean == 0 {
		return models.ConfidenceLow
	}

	cv := stdDevFloat64(values) / mean
	switch {
	case cv < cvHighCeiling:
		return models.ConfidenceHigh
	case cv < cvMediumCeiling:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
