package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// ErrNoActuals indicates that a period has no reported actual amounts,
// so there is nothing to score a forecast against.
var ErrNoActuals = errors.New("no actuals recorded for period")

// AccuracyRepository handles reported actuals and the per-method error
// metrics computed against them.
type AccuracyRepository struct {
	pool DatabasePool
}

// NewAccuracyRepository creates a new accuracy repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*AccuracyRepository: The initialized repository.
func NewAccuracyRepository(pool DatabasePool) *AccuracyRepository {
	return &AccuracyRepository{
		pool: pool,
	}
}

// UpsertActual records a reported actual, overwriting any previous
// report for the same (period, category). ReceivedAt on the record is
// refreshed from the database.
//
// Parameters:
//
//	ctx: Context.
//	actual: The reported amount. Period, Category and Amount must be set.
//
// Returns:
//
//	error: Error if the write fails.
func (r *AccuracyRepository) UpsertActual(ctx context.Context, actual *models.ActualRecord) error {
	query := `
		INSERT INTO actuals (year, month, category, amount, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (year, month, category)
		DO UPDATE SET
			amount = EXCLUDED.amount,
			source = EXCLUDED.source,
			received_at = CURRENT_TIMESTAMP
		RETURNING received_at
	`

	err := r.pool.QueryRow(ctx, query,
		actual.Period.Year,
		int(actual.Period.Month),
		actual.Category,
		actual.Amount,
		actual.Source,
	).Scan(&actual.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert actual for %s %s: %w", actual.Period.Key(), actual.Category, err)
	}

	return nil
}

// GetActualsForPeriod returns every actual reported for one period,
// ordered by category.
//
// Parameters:
//
//	ctx: Context.
//	period: The accounting period.
//
// Returns:
//
//	[]models.ActualRecord: Reported actuals; empty when none exist.
//	error: Error if retrieval fails.
func (r *AccuracyRepository) GetActualsForPeriod(ctx context.Context, period models.Period) ([]models.ActualRecord, error) {
	query := `
		SELECT year, month, category, amount, source, received_at
		FROM actuals
		WHERE year = $1 AND month = $2
		ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query, period.Year, int(period.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to get actuals for %s: %w", period.Key(), err)
	}
	defer rows.Close()

	var actuals []models.ActualRecord
	for rows.Next() {
		var (
			record      models.ActualRecord
			year, month int
		)
		err := rows.Scan(
			&year,
			&month,
			&record.Category,
			&record.Amount,
			&record.Source,
			&record.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actual: %w", err)
		}
		record.Period = models.NewPeriod(year, month)
		actuals = append(actuals, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actuals: %w", err)
	}

	return actuals, nil
}

// UpsertMetric stores one method's error, overwriting any prior
// computation for the same (version, category, method) so recomputation
// after corrected actuals is idempotent. ComputedAt on the metric is
// refreshed from the database.
//
// Parameters:
//
//	ctx: Context.
//	metric: The computed error.
//
// Returns:
//
//	error: Error if the write fails.
func (r *AccuracyRepository) UpsertMetric(ctx context.Context, metric *models.AccuracyMetric) error {
	query := `
		INSERT INTO accuracy_metrics (version_id, category, method, absolute_error, pct_error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (version_id, category, method)
		DO UPDATE SET
			absolute_error = EXCLUDED.absolute_error,
			pct_error = EXCLUDED.pct_error,
			computed_at = CURRENT_TIMESTAMP
		RETURNING computed_at
	`

	err := r.pool.QueryRow(ctx, query,
		metric.VersionID,
		metric.Category,
		string(metric.Method),
		metric.AbsoluteError,
		metric.PctError,
	).Scan(&metric.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert accuracy metric for %s/%s: %w", metric.Category, metric.Method, err)
	}

	return nil
}

// GetMetricsForVersion returns every stored metric for one version,
// ordered by category and canonical method order.
//
// Parameters:
//
//	ctx: Context.
//	versionID: The version UUID.
//
// Returns:
//
//	[]models.AccuracyMetric: Stored metrics; empty when accuracy has not
//	been computed for the version.
//	error: Error if retrieval fails.
func (r *AccuracyRepository) GetMetricsForVersion(ctx context.Context, versionID string) ([]models.AccuracyMetric, error) {
	query := `
		SELECT version_id, category, method, absolute_error, pct_error, computed_at
		FROM accuracy_metrics
		WHERE version_id = $1
		ORDER BY category, CASE method WHEN 'simple' THEN 1 WHEN 'weighted' THEN 2 ELSE 3 END
	`

	rows, err := r.pool.Query(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accuracy metrics: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// GetMetricHistory returns a category's scored history across all
// versions, oldest first. Metrics without a defined percentage error
// (the actual was zero) are excluded because they cannot be scored.
//
// Parameters:
//
//	ctx: Context.
//	category: The accrual category.
//
// Returns:
//
//	[]models.AccuracyMetric: Scorable history; empty when none exists.
//	error: Error if retrieval fails.
func (r *AccuracyRepository) GetMetricHistory(ctx context.Context, category string) ([]models.AccuracyMetric, error) {
	query := `
		SELECT version_id, category, method, absolute_error, pct_error, computed_at
		FROM accuracy_metrics
		WHERE category = $1 AND pct_error IS NOT NULL
		ORDER BY computed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric history for %s: %w", category, err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// GetMethodPerformance aggregates a category's stored metrics into one
// summary row per method. SampleCount counts only metrics with a
// defined percentage error, matching what the mean is computed over.
//
// Parameters:
//
//	ctx: Context.
//	category: The accrual category.
//
// Returns:
//
//	[]models.MethodPerformance: One summary per method with history.
//	error: Error if retrieval fails.
func (r *AccuracyRepository) GetMethodPerformance(ctx context.Context, category string) ([]models.MethodPerformance, error) {
	query := `
		SELECT method, COUNT(pct_error), AVG(pct_error)
		FROM accuracy_metrics
		WHERE category = $1
		GROUP BY method
		ORDER BY CASE method WHEN 'simple' THEN 1 WHEN 'weighted' THEN 2 ELSE 3 END
	`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get method performance for %s: %w", category, err)
	}
	defer rows.Close()

	var performances []models.MethodPerformance
	for rows.Next() {
		var (
			perf   models.MethodPerformance
			method string
		)
		if err := rows.Scan(&method, &perf.SampleCount, &perf.MeanPctError); err != nil {
			return nil, fmt.Errorf("failed to scan method performance: %w", err)
		}
		perf.Category = category
		perf.Method = models.ForecastMethod(method)
		performances = append(performances, perf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating method performance: %w", err)
	}

	return performances, nil
}

// scanMetrics drains a metric row set into model structs.
func scanMetrics(rows pgx.Rows) ([]models.AccuracyMetric, error) {
	var metrics []models.AccuracyMetric
	for rows.Next() {
		var (
			metric models.AccuracyMetric
			method string
		)
		err := rows.Scan(
			&metric.VersionID,
			&metric.Category,
			&method,
			&metric.AbsoluteError,
			&metric.PctError,
			&metric.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accuracy metric: %w", err)
		}
		metric.Method = models.ForecastMethod(method)
		metrics = append(metrics, metric)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accuracy metrics: %w", err)
	}

	return metrics, nil
}
