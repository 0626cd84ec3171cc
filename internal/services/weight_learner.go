package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finworks/accrual-engine-go/internal/config"
	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/telemetry"
)

// MetricHistorySource supplies the scored accuracy history for learning.
// *database.AccuracyRepository satisfies it.
type MetricHistorySource interface {
	GetMetricHistory(ctx context.Context, category string) ([]models.AccuracyMetric, error)
}

// WeightStore persists learned weight sets. *database.WeightsRepository
// satisfies it.
type WeightStore interface {
	UpsertWeights(ctx context.Context, weights []models.AdaptiveWeight) error
	GetWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error)
}

// WeightLearner derives per-category blending weights from accuracy
// history. Each method's historical percentage errors are averaged with an
// exponential recency decay, inverted into a score, and the three scores
// normalized into a weight triple. Learned weights are advisory: explicit
// weights on a run always win.
type WeightLearner struct {
	history      MetricHistorySource
	store        WeightStore
	halfLifeDays float64
	logger       *logrus.Logger
	tracer       *telemetry.BusinessTracer
}

// NewWeightLearner creates a weight learner using the configured decay
// half-life.
func NewWeightLearner(history MetricHistorySource, store WeightStore, cfg *config.Config, logger *logrus.Logger) *WeightLearner {
	if logger == nil {
		logger = logrus.New()
	}
	halfLife := cfg.Learning.HalfLifeDays
	if halfLife <= 0 {
		halfLife = 90
	}
	return &WeightLearner{
		history:      history,
		store:        store,
		halfLifeDays: halfLife,
		logger:       logger,
		tracer:       telemetry.NewBusinessTracer(),
	}
}

// UpdateWeights recomputes and persists the weight triple for one category
// from its full accuracy history. A category with no scorable history gets
// equal thirds back and nothing is persisted, so the store only ever holds
// weights that were actually learned.
func (l *WeightLearner) UpdateWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	ctx, span := l.tracer.TraceWeightRefresh(ctx, category)
	defer span.End()

	history, err := l.history.GetMetricHistory(ctx, category)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scores, samples := l.methodScores(history, now)
	if scores == nil {
		weights := equalWeightRows(category, now)
		l.tracer.RecordWeightUpdate(span, telemetry.WeightUpdateMetrics{
			SampleCount: 0,
			Persisted:   false,
			Weights:     weightMap(weights),
		})
		return weights, nil
	}

	weights := normalizedRows(category, scores, samples, now)
	if err := l.store.UpsertWeights(ctx, weights); err != nil {
		return nil, err
	}

	l.tracer.RecordWeightUpdate(span, telemetry.WeightUpdateMetrics{
		SampleCount:     len(history),
		ConfidenceScore: confidenceScore(len(history)),
		Persisted:       true,
		Weights:         weightMap(weights),
	})

	l.logger.WithFields(logrus.Fields{
		"category": category,
		"samples":  len(history),
	}).Info("Adaptive weights updated")

	return weights, nil
}

// GetWeights returns the stored weight rows for a category, or equal
// thirds when nothing has been learned yet.
func (l *WeightLearner) GetWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	stored, err := l.store.GetWeights(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}
	return equalWeightRows(category, time.Now().UTC()), nil
}

// methodScores turns the metric history into a raw score per method. Each
// metric's percentage error is weighted by exp(-ln2 * ageDays / halfLife),
// so a metric one half-life old counts half as much as a fresh one. A
// method with no samples receives the average score of the scored methods.
// Returns nil when no metric in the history is scorable.
func (l *WeightLearner) methodScores(history []models.AccuracyMetric, now time.Time) (map[models.ForecastMethod]float64, map[models.ForecastMethod]int) {
	samples := make(map[models.ForecastMethod]int)
	for _, metric := range history {
		if metric.PctError == nil {
			continue
		}
		samples[metric.Method]++
	}

	means := decayedMeanErrors(history, l.halfLifeDays, now)

	scores := make(map[models.ForecastMethod]float64, len(models.AllMethods()))
	scoredTotal := 0.0
	scoredCount := 0
	for _, method := range models.AllMethods() {
		if meanErr, ok := means[method]; ok {
			score := 1 / (1 + meanErr)
			scores[method] = score
			scoredTotal += score
			scoredCount++
		}
	}
	if scoredCount == 0 {
		return nil, samples
	}

	average := scoredTotal / float64(scoredCount)
	for _, method := range models.AllMethods() {
		if _, ok := scores[method]; !ok {
			scores[method] = average
		}
	}
	return scores, samples
}

// decayedMeanErrors averages each method's percentage errors under an
// exponential recency decay of exp(-ln2 * ageDays / halfLifeDays). Methods
// without a scorable metric are absent from the result. Negative means are
// clamped to zero.
func decayedMeanErrors(history []models.AccuracyMetric, halfLifeDays float64, now time.Time) map[models.ForecastMethod]float64 {
	if halfLifeDays <= 0 {
		halfLifeDays = 90
	}

	decaySum := make(map[models.ForecastMethod]float64)
	decayErrSum := make(map[models.ForecastMethod]float64)
	for _, metric := range history {
		if metric.PctError == nil {
			continue
		}
		ageDays := now.Sub(metric.ComputedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		decay := math.Exp(-math.Ln2 * ageDays / halfLifeDays)
		decaySum[metric.Method] += decay
		decayErrSum[metric.Method] += decay * *metric.PctError
	}

	means := make(map[models.ForecastMethod]float64, len(decaySum))
	for method, sum := range decaySum {
		if sum <= 0 {
			continue
		}
		mean := decayErrSum[method] / sum
		if mean < 0 {
			mean = 0
		}
		means[method] = mean
	}
	return means
}

// normalizedRows converts raw scores into weight rows summing to 1, in
// canonical method order.
func normalizedRows(category string, scores map[models.ForecastMethod]float64, samples map[models.ForecastMethod]int, now time.Time) []models.AdaptiveWeight {
	total := 0.0
	for _, score := range scores {
		total += score
	}

	weights := make([]models.AdaptiveWeight, 0, len(models.AllMethods()))
	for _, method := range models.AllMethods() {
		weights = append(weights, models.AdaptiveWeight{
			Category:        category,
			Method:          method,
			Weight:          scores[method] / total,
			SampleCount:     samples[method],
			ConfidenceScore: confidenceScore(samples[method]),
			UpdatedAt:       now,
		})
	}
	return weights
}

// equalWeightRows is the unlearned default: equal thirds, zero samples.
func equalWeightRows(category string, now time.Time) []models.AdaptiveWeight {
	third := 1.0 / 3.0
	weights := make([]models.AdaptiveWeight, 0, len(models.AllMethods()))
	for _, method := range models.AllMethods() {
		weights = append(weights, models.AdaptiveWeight{
			Category:  category,
			Method:    method,
			Weight:    third,
			UpdatedAt: now,
		})
	}
	return weights
}

// confidenceScore grows with sample count and caps at 0.9: ten scored
// periods are treated as full (but never absolute) trust.
func confidenceScore(sampleCount int) float64 {
	return math.Min(0.9, float64(sampleCount)/10)
}

func weightMap(weights []models.AdaptiveWeight) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for _, w := range weights {
		out[string(w.Method)] = w.Weight
	}
	return out
}
