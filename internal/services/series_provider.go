package services

import (
	"context"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// SeriesProvider supplies the historical series a forecast run operates on.
// The HTTP surface builds one from the request payload; programmatic callers
// can plug in their own source (spreadsheet import, warehouse query).
type SeriesProvider interface {
	// Series returns one HistoricalSeries per category, each ordered
	// oldest first.
	Series(ctx context.Context) ([]models.HistoricalSeries, error)
}

// StaticSeriesProvider wraps an already materialized category table.
type StaticSeriesProvider struct {
	series []models.HistoricalSeries
}

// NewStaticSeriesProvider creates a provider over a fixed set of series.
func NewStaticSeriesProvider(series []models.HistoricalSeries) *StaticSeriesProvider {
	return &StaticSeriesProvider{series: series}
}

// Series returns the wrapped series unchanged.
func (p *StaticSeriesProvider) Series(_ context.Context) ([]models.HistoricalSeries, error) {
	return p.series, nil
}
