package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// Aggregate blends the per-method results for one category into a single
// recommended value using the supplied weights. Weights are advisory: the
// caller decides whether they are learned or explicit, and equal thirds is
// the fallback when no weight set is given. Methods that failed are excluded
// and the remaining weights renormalized. The recommendation's confidence is
// the worst tier among the methods that produced a value.
//
// Returns nil when no method succeeded; the category then carries only its
// error markers.
func Aggregate(results []models.MethodResult, weights models.WeightSet) *models.Recommendation {
	if len(weights) == 0 {
		weights = models.EqualWeights()
	}

	var (
		succeeded   []models.MethodResult
		totalWeight float64
	)
	for _, r := range results {
		if !r.Succeeded() {
			continue
		}
		succeeded = append(succeeded, r)
		totalWeight += weights[r.Method]
	}
	if len(succeeded) == 0 {
		return nil
	}

	tiers := make([]models.ConfidenceTier, 0, len(succeeded))
	blended := decimal.Zero
	for _, r := range succeeded {
		w := weights[r.Method]
		if totalWeight > 0 {
			w = w / totalWeight
		} else {
			// All surviving methods carry zero weight; split evenly.
			w = 1.0 / float64(len(succeeded))
		}
		blended = blended.Add(r.Amount.Mul(decimal.NewFromFloat(w)))
		tiers = append(tiers, r.Confidence)
	}

	return &models.Recommendation{
		Amount:     blended.Round(2),
		Confidence: models.WorstTier(tiers...),
	}
}
