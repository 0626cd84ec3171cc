package forecast

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// Engine runs the full per-category pipeline for one forecast: weekly
// normalization, the three methods, confidence classification and
// aggregation. It holds no mutable state between runs; weights arrive as an
// explicit parameter so nothing stale survives across runs.
type Engine struct {
	logger *logrus.Logger
}

// NewEngine creates a forecast engine.
func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{logger: logger}
}

// Run computes forecasts for every category in the input set against the
// target period. Per-category and per-method failures are isolated: a method
// that cannot produce a value carries an error marker while the other
// methods and categories proceed. Malformed input (invalid target, invalid
// series, duplicate categories) fails the whole run.
func (e *Engine) Run(target models.Period, series []models.HistoricalSeries, weights map[string]models.WeightSet) ([]models.CategoryForecast, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("target period: %w", err)
	}

	seen := make(map[string]bool, len(series))
	for _, s := range series {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Category] {
			return nil, fmt.Errorf("duplicate category %q in input", s.Category)
		}
		seen[s.Category] = true
	}

	forecasts := make([]models.CategoryForecast, 0, len(series))
	for _, s := range series {
		forecasts = append(forecasts, e.runCategory(target, s, weights[s.Category]))
	}
	return forecasts, nil
}

func (e *Engine) runCategory(target models.Period, s models.HistoricalSeries, weights models.WeightSet) models.CategoryForecast {
	tier := Classify(s.Amounts())

	rates, err := weeklyRates(s.Observations)
	if err != nil {
		// Calendar failure poisons every method for this category but
		// not the rest of the batch.
		e.logger.WithFields(logrus.Fields{
			"category": s.Category,
			"target":   target.Key(),
		}).WithError(err).Warn("Skipping category: weekly normalization failed")
		return models.CategoryForecast{
			Category: s.Category,
			Results:  failedResults(errorKindFor(err), tier),
		}
	}

	results := make([]models.MethodResult, 0, 3)
	for _, method := range models.AllMethods() {
		value, err := ForecastValue(method, rates, target.Month)
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"category": s.Category,
				"method":   string(method),
			}).WithError(err).Debug("Method produced no value")
			results = append(results, models.MethodResult{
				Method:     method,
				ErrorKind:  errorKindFor(err),
				Confidence: tier,
			})
			continue
		}
		amount := value
		results = append(results, models.MethodResult{
			Method:     method,
			Amount:     &amount,
			Confidence: tier,
		})
	}

	forecast := models.CategoryForecast{
		Category: s.Category,
		Results:  results,
	}
	if rec := Aggregate(results, weights); rec != nil {
		rec.Trend = ClassifyTrend(rates)
		forecast.Recommendation = rec
	}
	return forecast
}

// weeklyRates converts each observation to its weekly rate, oldest first.
func weeklyRates(observations []models.MonthlyObservation) ([]float64, error) {
	rates := make([]float64, len(observations))
	for i, obs := range observations {
		rate, err := WeeklyRate(obs.Amount, obs.Period.Month)
		if err != nil {
			return nil, err
		}
		rates[i] = rate.InexactFloat64()
	}
	return rates, nil
}

func failedResults(kind models.ErrorKind, tier models.ConfidenceTier) []models.MethodResult {
	results := make([]models.MethodResult, 0, 3)
	for _, method := range models.AllMethods() {
		results = append(results, models.MethodResult{
			Method:     method,
			ErrorKind:  kind,
			Confidence: tier,
		})
	}
	return results
}

func errorKindFor(err error) models.ErrorKind {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return models.ErrorKindInsufficientData
	case errors.Is(err, ErrInvalidMonth):
		return models.ErrorKindInvalidMonth
	default:
		return models.ErrorKindInsufficientData
	}
}
