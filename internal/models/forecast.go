package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastMethod identifies one of the three supported estimators.
type ForecastMethod string

const (
	MethodSimple   ForecastMethod = "simple"
	MethodWeighted ForecastMethod = "weighted"
	MethodTrending ForecastMethod = "trending"
)

// AllMethods returns the three estimators in their canonical order.
func AllMethods() []ForecastMethod {
	return []ForecastMethod{MethodSimple, MethodWeighted, MethodTrending}
}

// ConfidenceTier is the qualitative reliability label derived from
// the dispersion of a category's historical series.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Rank orders tiers from worst (0) to best (2). Unknown tiers rank worst.
func (c ConfidenceTier) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// WorstTier returns the lowest-ranked tier among the given tiers.
// An empty input yields ConfidenceLow.
func WorstTier(tiers ...ConfidenceTier) ConfidenceTier {
	worst := ConfidenceHigh
	if len(tiers) == 0 {
		return ConfidenceLow
	}
	for _, t := range tiers {
		if t.Rank() < worst.Rank() {
			worst = t
		}
	}
	return worst
}

// TrendDirection is the momentum label attached to a category's recommendation.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendFlat    TrendDirection = "flat"
)

// ErrorKind marks why a method produced no value for a category.
type ErrorKind string

const (
	ErrorKindInsufficientData ErrorKind = "insufficient_data"
	ErrorKindInvalidMonth     ErrorKind = "invalid_month"
)

// Period identifies one accounting period (calendar year plus month).
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod builds a Period from plain integers.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: time.Month(month)}
}

// Key returns the canonical "YYYY-MM" form used in cache keys and logs.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Before reports whether p is chronologically earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Validate checks that the month is a real calendar month and the year sane.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("period %04d-%02d: month out of range", p.Year, int(p.Month))
	}
	if p.Year < 1900 || p.Year > 3000 {
		return fmt.Errorf("period %04d-%02d: year out of range", p.Year, int(p.Month))
	}
	return nil
}

// MonthlyObservation is a single historical data point for a category.
type MonthlyObservation struct {
	Period Period          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

// HistoricalSeries holds one category's ordered monthly actuals,
// oldest first. Supplied by the external data source; read-only to the core.
type HistoricalSeries struct {
	Category     string               `json:"category"`
	Observations []MonthlyObservation `json:"observations"`
}

// Validate enforces the series invariants: at least one observation,
// months strictly increasing, values non-negative.
func (s HistoricalSeries) Validate() error {
	if s.Category == "" {
		return fmt.Errorf("series: category is required")
	}
	if len(s.Observations) == 0 {
		return fmt.Errorf("series %q: at least one observation is required", s.Category)
	}
	for i, obs := range s.Observations {
		if err := obs.Period.Validate(); err != nil {
			return fmt.Errorf("series %q: %w", s.Category, err)
		}
		if obs.Amount.IsNegative() {
			return fmt.Errorf("series %q: negative amount at %s", s.Category, obs.Period.Key())
		}
		if i > 0 && !s.Observations[i-1].Period.Before(obs.Period) {
			return fmt.Errorf("series %q: observations must be strictly increasing by period", s.Category)
		}
	}
	return nil
}

// Amounts returns the raw monetary values in series order.
func (s HistoricalSeries) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Observations))
	for i, obs := range s.Observations {
		out[i] = obs.Amount
	}
	return out
}

// MethodResult is one estimator's outcome for one category. A failed
// method carries an ErrorKind and no amount.
type MethodResult struct {
	Method     ForecastMethod   `json:"method" db:"method"`
	Amount     *decimal.Decimal `json:"amount,omitempty" db:"amount"`
	ErrorKind  ErrorKind        `json:"error_kind,omitempty" db:"error_kind"`
	Confidence ConfidenceTier   `json:"confidence" db:"confidence"`
}

// Succeeded reports whether the method produced a value.
func (r MethodResult) Succeeded() bool {
	return r.Amount != nil && r.ErrorKind == ""
}

// Recommendation is the aggregated per-category output of a run.
type Recommendation struct {
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Confidence ConfidenceTier  `json:"confidence" db:"confidence"`
	Trend      TrendDirection  `json:"trend" db:"trend"`
}

// CategoryForecast bundles every outcome for one category within a version.
// A category with no successful method carries only error markers and no
// recommendation.
type CategoryForecast struct {
	Category       string          `json:"category"`
	Results        []MethodResult  `json:"results"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Result returns the outcome for a given method, or nil when absent.
func (c CategoryForecast) Result(method ForecastMethod) *MethodResult {
	for i := range c.Results {
		if c.Results[i].Method == method {
			return &c.Results[i]
		}
	}
	return nil
}

// RunParameters records the knobs a forecast run was executed with,
// stored with the version for audit.
type RunParameters struct {
	Weights         map[string]WeightSet `json:"weights,omitempty"`
	WeightsExplicit bool                 `json:"weights_explicit"`
	HalfLifeDays    float64              `json:"half_life_days"`
	Methods         []ForecastMethod     `json:"methods"`
}

// ForecastVersion is one immutable snapshot of a forecast run.
// Superseded versions remain queryable; corrections create new versions.
type ForecastVersion struct {
	ID         string             `json:"id" db:"id"`
	Period     Period             `json:"period"`
	Label      string             `json:"label,omitempty" db:"label"`
	Notes      string             `json:"notes,omitempty" db:"notes"`
	Parameters RunParameters      `json:"parameters"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
	Categories []CategoryForecast `json:"categories"`
}

// Category returns the forecast bundle for a category, or nil when the
// version does not cover it.
func (v *ForecastVersion) Category(name string) *CategoryForecast {
	for i := range v.Categories {
		if v.Categories[i].Category == name {
			return &v.Categories[i]
		}
	}
	return nil
}
