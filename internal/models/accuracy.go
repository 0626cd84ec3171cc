package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActualRecord is a reported actual amount for one (period, category).
// Re-submissions for the same key overwrite the prior record.
type ActualRecord struct {
	Period     Period          `json:"period"`
	Category   string          `json:"category" db:"category"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Source     string          `json:"source,omitempty" db:"source"`
	ReceivedAt time.Time       `json:"received_at" db:"received_at"`
}

// AccuracyMetric records one method's error against the reported actual
// for a version and category. PctError is nil when the actual was zero
// and the ratio is undefined.
type AccuracyMetric struct {
	VersionID     string          `json:"version_id" db:"version_id"`
	Category      string          `json:"category" db:"category"`
	Method        ForecastMethod  `json:"method" db:"method"`
	AbsoluteError decimal.Decimal `json:"absolute_error" db:"absolute_error"`
	PctError      *float64        `json:"pct_error,omitempty" db:"pct_error"`
	ComputedAt    time.Time       `json:"computed_at" db:"computed_at"`
}

// MethodPerformance is the derived accuracy summary for one
// (category, method) pair, recomputed on demand from metric history.
type MethodPerformance struct {
	Category             string         `json:"category"`
	Method               ForecastMethod `json:"method"`
	SampleCount          int            `json:"sample_count"`
	MeanPctError         *float64       `json:"mean_pct_error,omitempty"`
	RecencyWeightedError *float64       `json:"recency_weighted_error,omitempty"`
}

// AdaptiveWeight is one learned blending coefficient. The three weights
// of a category sum to 1. ConfidenceScore grows with sample count and is
// capped at 0.9.
type AdaptiveWeight struct {
	Category        string         `json:"category" db:"category"`
	Method          ForecastMethod `json:"method" db:"method"`
	Weight          float64        `json:"weight" db:"weight"`
	SampleCount     int            `json:"sample_count" db:"sample_count"`
	ConfidenceScore float64        `json:"confidence_score" db:"confidence_score"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// WeightSet maps each method to its blending weight for one category.
type WeightSet map[ForecastMethod]float64

// EqualWeights is the default used when a category has no learned history.
func EqualWeights() WeightSet {
	third := 1.0 / 3.0
	return WeightSet{
		MethodSimple:   third,
		MethodWeighted: third,
		MethodTrending: third,
	}
}

// Sum returns the total of all weights in the set.
func (w WeightSet) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}
