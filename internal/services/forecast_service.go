package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finworks/accrual-engine-go/internal/config"
	"github.com/finworks/accrual-engine-go/internal/forecast"
	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/telemetry"
	"github.com/finworks/accrual-engine-go/internal/utils"
	"github.com/finworks/accrual-engine-go/pkg/interfaces"
)

// VersionStore is the persistence surface the forecast service depends on.
// *database.VersionRepository satisfies it.
type VersionStore interface {
	CreateVersion(ctx context.Context, version *models.ForecastVersion) error
	GetVersion(ctx context.Context, id string) (*models.ForecastVersion, error)
	FindLatestVersionForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error)
	ListVersions(ctx context.Context, period *models.Period, limit int) ([]models.ForecastVersion, error)
}

// WeightSource resolves stored blending weights at the start of a run.
// *database.WeightsRepository satisfies it.
type WeightSource interface {
	GetAllWeightSets(ctx context.Context) (map[string]models.WeightSet, error)
}

// RunNotifier delivers ops alerts about runs and accuracy outcomes.
// *TelegramNotifier satisfies it.
type RunNotifier interface {
	NotifyRunSummary(ctx context.Context, version *models.ForecastVersion) error
	NotifyDegradation(ctx context.Context, period models.Period, degraded []CategoryDegradation) error
}

// RunRequest describes one forecast run: the target period, the historical
// series per category, and optional metadata. Explicit weights override the
// stored adaptive weights for this run only.
type RunRequest struct {
	Period  models.Period
	Label   string
	Notes   string
	Series  []models.HistoricalSeries
	Weights map[string]models.WeightSet
}

// ForecastService runs the forecast pipeline and manages version snapshots.
// Each run reads the current adaptive weights, executes the engine, and
// persists the outcome as a new immutable version.
type ForecastService struct {
	versions VersionStore
	weights  WeightSource
	cache    interfaces.VersionCache
	notifier RunNotifier
	engine   *forecast.Engine
	cfg      *config.Config
	logger   *logrus.Logger
	tracer   *telemetry.BusinessTracer
}

// NewForecastService creates a forecast service. The cache and notifier are
// optional; pass nil to run without them.
func NewForecastService(versions VersionStore, weights WeightSource, cache interfaces.VersionCache, notifier RunNotifier, cfg *config.Config, logger *logrus.Logger) *ForecastService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ForecastService{
		versions: versions,
		weights:  weights,
		cache:    cache,
		notifier: notifier,
		engine:   forecast.NewEngine(logger),
		cfg:      cfg,
		logger:   logger,
		tracer:   telemetry.NewBusinessTracer(),
	}
}

// RunForecast executes one forecast run and persists it as a new version.
// Weights resolve in two steps: explicit weights from the request win;
// otherwise the stored adaptive weights are fetched fresh. Input validation
// failures surface as ValidationErrors; store failures abort the run.
func (s *ForecastService) RunForecast(ctx context.Context, req RunRequest) (*models.ForecastVersion, error) {
	start := time.Now()
	ctx, span := s.tracer.TraceForecastRun(ctx, req.Period.Key(), len(req.Series))
	defer span.End()

	weights := req.Weights
	explicit := len(weights) > 0
	if !explicit {
		stored, err := s.weights.GetAllWeightSets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load adaptive weights: %w", err)
		}
		weights = stored
	}

	categories, err := s.engine.Run(req.Period, req.Series, weights)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	version := &models.ForecastVersion{
		ID:     uuid.New().String(),
		Period: req.Period,
		Label:  req.Label,
		Notes:  req.Notes,
		Parameters: models.RunParameters{
			Weights:         usedWeights(req.Series, weights),
			WeightsExplicit: explicit,
			HalfLifeDays:    s.cfg.Learning.HalfLifeDays,
			Methods:         models.AllMethods(),
		},
		CreatedAt:  time.Now().UTC(),
		Categories: categories,
	}

	if err := s.versions.CreateVersion(ctx, version); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, version)
	}

	recommended, failed := countOutcomes(categories)
	s.tracer.RecordRunMetrics(span, telemetry.RunMetrics{
		VersionID:          version.ID,
		ForecastCategories: recommended,
		FailedCategories:   failed,
		Duration:           time.Since(start),
	})

	s.logger.WithFields(logrus.Fields{
		"version_id": version.ID,
		"period":     req.Period.Key(),
		"categories": len(categories),
		"failed":     failed,
	}).Info("Forecast run completed")

	if s.notifier != nil {
		if err := s.notifier.NotifyRunSummary(ctx, version); err != nil {
			s.logger.WithError(err).Warn("Failed to send run summary notification")
		}
	}

	return version, nil
}

// RunForecastFromProvider pulls the series from a SeriesProvider and runs
// the forecast with them. Any series already on the request are replaced.
func (s *ForecastService) RunForecastFromProvider(ctx context.Context, req RunRequest, provider SeriesProvider) (*models.ForecastVersion, error) {
	series, err := provider.Series(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical series: %w", err)
	}
	req.Series = series
	return s.RunForecast(ctx, req)
}

// GetVersion returns one version snapshot, read through the cache when one
// is configured. Snapshots are immutable so a cache hit never goes stale.
func (s *ForecastService) GetVersion(ctx context.Context, id string) (*models.ForecastVersion, error) {
	if s.cache != nil {
		if version, ok := s.cache.Get(ctx, id); ok {
			return version, nil
		}
	}

	version, err := s.versions.GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, version)
	}
	return version, nil
}

// GetLatestForPeriod returns the most recent version for a period. The
// lookup itself always hits the store because newer runs supersede older
// ones, but the fetched snapshot is cached by ID for later GetVersion calls.
func (s *ForecastService) GetLatestForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error) {
	version, err := s.versions.FindLatestVersionForPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, version)
	}
	return version, nil
}

// ListVersions returns version summaries in creation order, optionally
// filtered to one period.
func (s *ForecastService) ListVersions(ctx context.Context, period *models.Period, limit int) ([]models.ForecastVersion, error) {
	return s.versions.ListVersions(ctx, period, limit)
}

// usedWeights narrows the resolved weight map to the categories the run
// actually covers, for the version's audit parameters.
func usedWeights(series []models.HistoricalSeries, weights map[string]models.WeightSet) map[string]models.WeightSet {
	if len(weights) == 0 {
		return nil
	}
	used := make(map[string]models.WeightSet)
	for _, s := range series {
		if set, ok := weights[s.Category]; ok {
			used[s.Category] = set
		}
	}
	if len(used) == 0 {
		return nil
	}
	return used
}

func countOutcomes(categories []models.CategoryForecast) (recommended, failed int) {
	for _, cat := range categories {
		if cat.Recommendation != nil {
			recommended++
		} else {
			failed++
		}
	}
	return recommended, failed
}
