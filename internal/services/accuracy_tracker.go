package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finworks/accrual-engine-go/internal/config"
	"github.com/finworks/accrual-engine-go/internal/database"
	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/telemetry"
	"github.com/finworks/accrual-engine-go/internal/utils"
)

// ActualsStore is the persistence surface the tracker depends on for
// actuals, metrics and performance summaries. *database.AccuracyRepository
// satisfies it.
type ActualsStore interface {
	UpsertActual(ctx context.Context, actual *models.ActualRecord) error
	GetActualsForPeriod(ctx context.Context, period models.Period) ([]models.ActualRecord, error)
	UpsertMetric(ctx context.Context, metric *models.AccuracyMetric) error
	GetMetricsForVersion(ctx context.Context, versionID string) ([]models.AccuracyMetric, error)
	GetMethodPerformance(ctx context.Context, category string) ([]models.MethodPerformance, error)
	GetMetricHistory(ctx context.Context, category string) ([]models.AccuracyMetric, error)
}

// LatestVersionFinder narrows the version store to the single lookup the
// tracker needs.
type LatestVersionFinder interface {
	FindLatestVersionForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error)
}

// WeightRefresher triggers adaptive weight recomputation once new metrics
// exist. *WeightLearner satisfies it.
type WeightRefresher interface {
	UpdateWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error)
}

// AccuracyTracker ingests reported actuals and scores stored forecasts
// against them. Scoring a period also refreshes the adaptive weights of
// every category that received new metrics, closing the learning loop.
type AccuracyTracker struct {
	store    ActualsStore
	versions LatestVersionFinder
	learner  WeightRefresher
	notifier RunNotifier
	cfg      *config.Config
	logger   *logrus.Logger
	tracer   *telemetry.BusinessTracer
}

// NewAccuracyTracker creates an accuracy tracker. The learner and notifier
// are optional; pass nil to score without weight refreshes or alerts.
func NewAccuracyTracker(store ActualsStore, versions LatestVersionFinder, learner WeightRefresher, notifier RunNotifier, cfg *config.Config, logger *logrus.Logger) *AccuracyTracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &AccuracyTracker{
		store:    store,
		versions: versions,
		learner:  learner,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		tracer:   telemetry.NewBusinessTracer(),
	}
}

// RecordActuals validates and upserts a batch of reported actuals. A later
// report for the same (period, category) overwrites the earlier one; stored
// accuracy history is not recomputed until ComputeAccuracy is re-triggered.
// The returned records carry the database-assigned received timestamps.
func (t *AccuracyTracker) RecordActuals(ctx context.Context, records []models.ActualRecord) ([]models.ActualRecord, error) {
	if len(records) == 0 {
		return nil, utils.NewValidationError("at least one actual record is required")
	}

	for i := range records {
		record := &records[i]
		if err := record.Period.Validate(); err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		if record.Category == "" {
			return nil, utils.NewValidationErrorf("actual for %s: category is required", record.Period.Key())
		}
		if err := t.store.UpsertActual(ctx, record); err != nil {
			return nil, err
		}
	}

	t.logger.WithField("count", len(records)).Info("Recorded actuals")
	return records, nil
}

// ComputeAccuracy scores the latest forecast version of a period against
// the actuals reported for it. For every category present on both sides,
// each method that produced a value gets an absolute error; the percentage
// error is stored only when the actual is non-zero. Recomputation is
// idempotent: it overwrites prior metrics for the same (version, category,
// method). Categories missing either side are skipped silently.
func (t *AccuracyTracker) ComputeAccuracy(ctx context.Context, period models.Period) ([]models.AccuracyMetric, error) {
	start := time.Now()
	ctx, span := t.tracer.TraceAccuracyRun(ctx, period.Key())
	defer span.End()

	version, err := t.versions.FindLatestVersionForPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	actuals, err := t.store.GetActualsForPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if len(actuals) == 0 {
		return nil, database.ErrNoActuals
	}

	metrics := make([]models.AccuracyMetric, 0, len(actuals)*len(models.AllMethods()))
	touched := make(map[string]bool)
	skipped := 0

	for _, actual := range actuals {
		cat := version.Category(actual.Category)
		if cat == nil {
			skipped++
			continue
		}

		scored := false
		for _, res := range cat.Results {
			if !res.Succeeded() {
				continue
			}

			metric := models.AccuracyMetric{
				VersionID:     version.ID,
				Category:      actual.Category,
				Method:        res.Method,
				AbsoluteError: res.Amount.Sub(actual.Amount).Abs(),
			}
			if !actual.Amount.IsZero() {
				pct := metric.AbsoluteError.Div(actual.Amount.Abs()).InexactFloat64()
				metric.PctError = &pct
			}

			if err := t.store.UpsertMetric(ctx, &metric); err != nil {
				return nil, err
			}
			metrics = append(metrics, metric)
			scored = true
		}

		if scored {
			touched[actual.Category] = true
		} else {
			skipped++
		}
	}

	t.refreshWeights(ctx, touched)

	if degraded := t.findDegraded(metrics); len(degraded) > 0 && t.notifier != nil {
		if err := t.notifier.NotifyDegradation(ctx, period, degraded); err != nil {
			t.logger.WithError(err).Warn("Failed to send degradation notification")
		}
	}

	t.tracer.RecordAccuracyMetrics(span, telemetry.AccuracyRunMetrics{
		VersionID:    version.ID,
		MetricCount:  len(metrics),
		SkippedCount: skipped,
		Duration:     time.Since(start),
	})

	t.logger.WithFields(logrus.Fields{
		"period":     period.Key(),
		"version_id": version.ID,
		"metrics":    len(metrics),
		"skipped":    skipped,
	}).Info("Accuracy computation completed")

	return metrics, nil
}

// GetVersionMetrics returns the stored metrics for one version.
func (t *AccuracyTracker) GetVersionMetrics(ctx context.Context, versionID string) ([]models.AccuracyMetric, error) {
	return t.store.GetMetricsForVersion(ctx, versionID)
}

// GetPerformance returns the per-method accuracy summary for one category.
// The recency-weighted error uses the same decay as the weight learner, so
// the summary explains the weights currently in force.
func (t *AccuracyTracker) GetPerformance(ctx context.Context, category string) ([]models.MethodPerformance, error) {
	performance, err := t.store.GetMethodPerformance(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(performance) == 0 {
		return performance, nil
	}

	history, err := t.store.GetMetricHistory(ctx, category)
	if err != nil {
		return nil, err
	}

	weighted := decayedMeanErrors(history, t.cfg.Learning.HalfLifeDays, time.Now().UTC())
	for i := range performance {
		if mean, ok := weighted[performance[i].Method]; ok {
			performance[i].RecencyWeightedError = &mean
		}
	}
	return performance, nil
}

// refreshWeights recomputes adaptive weights for every category that
// received new metrics. A failed refresh is logged and skipped: the metrics
// are already stored, and the weights endpoint can re-trigger it.
func (t *AccuracyTracker) refreshWeights(ctx context.Context, touched map[string]bool) {
	if t.learner == nil || len(touched) == 0 {
		return
	}

	categories := make([]string, 0, len(touched))
	for category := range touched {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		if _, err := t.learner.UpdateWeights(ctx, category); err != nil {
			t.logger.WithError(err).WithField("category", category).Warn("Failed to refresh adaptive weights")
		}
	}
}

// findDegraded flags categories whose mean percentage error from this run
// exceeds the configured alert threshold, along with their worst method.
func (t *AccuracyTracker) findDegraded(metrics []models.AccuracyMetric) []CategoryDegradation {
	threshold := t.cfg.Telegram.DegradationThreshold
	if threshold <= 0 {
		return nil
	}

	type categoryErrors struct {
		sum      float64
		count    int
		worst    models.ForecastMethod
		worstErr float64
	}

	byCategory := make(map[string]*categoryErrors)
	order := make([]string, 0)
	for _, metric := range metrics {
		if metric.PctError == nil {
			continue
		}
		errs, ok := byCategory[metric.Category]
		if !ok {
			errs = &categoryErrors{}
			byCategory[metric.Category] = errs
			order = append(order, metric.Category)
		}
		errs.sum += *metric.PctError
		errs.count++
		if *metric.PctError >= errs.worstErr {
			errs.worst = metric.Method
			errs.worstErr = *metric.PctError
		}
	}

	var degraded []CategoryDegradation
	for _, category := range order {
		errs := byCategory[category]
		mean := errs.sum / float64(errs.count)
		if mean > threshold {
			degraded = append(degraded, CategoryDegradation{
				Category:     category,
				MeanPctError: mean,
				WorstMethod:  errs.worst,
			})
		}
	}
	return degraded
}
