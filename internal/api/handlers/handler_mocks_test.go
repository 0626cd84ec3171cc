package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/services"
)

// MockForecastService implements ForecastService for handler tests
type MockForecastService struct {
	mock.Mock
}

func (m *MockForecastService) RunForecast(ctx context.Context, req services.RunRequest) (*models.ForecastVersion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastVersion), args.Error(1)
}

func (m *MockForecastService) GetVersion(ctx context.Context, id string) (*models.ForecastVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastVersion), args.Error(1)
}

func (m *MockForecastService) GetLatestForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastVersion), args.Error(1)
}

func (m *MockForecastService) ListVersions(ctx context.Context, period *models.Period, limit int) ([]models.ForecastVersion, error) {
	args := m.Called(ctx, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForecastVersion), args.Error(1)
}

// MockAccuracyService implements AccuracyService for handler tests
type MockAccuracyService struct {
	mock.Mock
}

func (m *MockAccuracyService) RecordActuals(ctx context.Context, records []models.ActualRecord) ([]models.ActualRecord, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActualRecord), args.Error(1)
}

func (m *MockAccuracyService) ComputeAccuracy(ctx context.Context, period models.Period) ([]models.AccuracyMetric, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccuracyMetric), args.Error(1)
}

func (m *MockAccuracyService) GetVersionMetrics(ctx context.Context, versionID string) ([]models.AccuracyMetric, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccuracyMetric), args.Error(1)
}

func (m *MockAccuracyService) GetPerformance(ctx context.Context, category string) ([]models.MethodPerformance, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MethodPerformance), args.Error(1)
}

// MockWeightsService implements WeightsService for handler tests
type MockWeightsService struct {
	mock.Mock
}

func (m *MockWeightsService) GetWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdaptiveWeight), args.Error(1)
}

func (m *MockWeightsService) UpdateWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdaptiveWeight), args.Error(1)
}

// stubHealthChecker implements the health checker interfaces with a fixed
// outcome.
type stubHealthChecker struct {
	err error
}

func (s *stubHealthChecker) HealthCheck(ctx context.Context) error {
	return s.err
}
