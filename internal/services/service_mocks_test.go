package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/pkg/interfaces"
)

// MockVersionStore implements VersionStore for testing within the services package
type MockVersionStore struct {
	mock.Mock
}

func (m *MockVersionStore) CreateVersion(ctx context.Context, version *models.ForecastVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionStore) GetVersion(ctx context.Context, id string) (*models.ForecastVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastVersion), args.Error(1)
}

func (m *MockVersionStore) FindLatestVersionForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastVersion), args.Error(1)
}

func (m *MockVersionStore) ListVersions(ctx context.Context, period *models.Period, limit int) ([]models.ForecastVersion, error) {
	args := m.Called(ctx, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForecastVersion), args.Error(1)
}

// MockWeightSource implements WeightSource for testing within the services package
type MockWeightSource struct {
	mock.Mock
}

func (m *MockWeightSource) GetAllWeightSets(ctx context.Context) (map[string]models.WeightSet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.WeightSet), args.Error(1)
}

// MockRunNotifier implements RunNotifier for testing within the services package
type MockRunNotifier struct {
	mock.Mock
}

func (m *MockRunNotifier) NotifyRunSummary(ctx context.Context, version *models.ForecastVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockRunNotifier) NotifyDegradation(ctx context.Context, period models.Period, degraded []CategoryDegradation) error {
	args := m.Called(ctx, period, degraded)
	return args.Error(0)
}

// MockActualsStore implements ActualsStore for testing within the services package
type MockActualsStore struct {
	mock.Mock
}

func (m *MockActualsStore) UpsertActual(ctx context.Context, actual *models.ActualRecord) error {
	args := m.Called(ctx, actual)
	return args.Error(0)
}

func (m *MockActualsStore) GetActualsForPeriod(ctx context.Context, period models.Period) ([]models.ActualRecord, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActualRecord), args.Error(1)
}

func (m *MockActualsStore) UpsertMetric(ctx context.Context, metric *models.AccuracyMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockActualsStore) GetMetricsForVersion(ctx context.Context, versionID string) ([]models.AccuracyMetric, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccuracyMetric), args.Error(1)
}

func (m *MockActualsStore) GetMethodPerformance(ctx context.Context, category string) ([]models.MethodPerformance, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MethodPerformance), args.Error(1)
}

func (m *MockActualsStore) GetMetricHistory(ctx context.Context, category string) ([]models.AccuracyMetric, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccuracyMetric), args.Error(1)
}

// MockWeightRefresher implements WeightRefresher for testing within the services package
type MockWeightRefresher struct {
	mock.Mock
}

func (m *MockWeightRefresher) UpdateWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdaptiveWeight), args.Error(1)
}

// MockMetricHistorySource implements MetricHistorySource for testing within the services package
type MockMetricHistorySource struct {
	mock.Mock
}

func (m *MockMetricHistorySource) GetMetricHistory(ctx context.Context, category string) ([]models.AccuracyMetric, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccuracyMetric), args.Error(1)
}

// MockWeightStore implements WeightStore for testing within the services package
type MockWeightStore struct {
	mock.Mock
}

func (m *MockWeightStore) UpsertWeights(ctx context.Context, weights []models.AdaptiveWeight) error {
	args := m.Called(ctx, weights)
	return args.Error(0)
}

func (m *MockWeightStore) GetWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdaptiveWeight), args.Error(1)
}

// MockVersionCache implements interfaces.VersionCache for testing within the services package
type MockVersionCache struct {
	mock.Mock
}

func (m *MockVersionCache) Get(ctx context.Context, versionID string) (*models.ForecastVersion, bool) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.ForecastVersion), args.Bool(1)
}

func (m *MockVersionCache) Set(ctx context.Context, version *models.ForecastVersion) {
	m.Called(ctx, version)
}

func (m *MockVersionCache) GetStats() interfaces.VersionCacheStats {
	args := m.Called()
	return args.Get(0).(interfaces.VersionCacheStats)
}

func (m *MockVersionCache) LogStats() {
	m.Called()
}

func (m *MockVersionCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
