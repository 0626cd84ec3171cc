package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// ErrVersionNotFound is returned when no forecast version matches a lookup.
var ErrVersionNotFound = errors.New("forecast version not found")

// defaultListLimit caps version listings when the caller does not
// supply a limit of its own.
const defaultListLimit = 100

// DatabasePool defines the interface for database pool operations.
// Both the live traced pool and pgxmock implement it.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	// Begin starts a transaction.
	Begin(ctx context.Context) (pgx.Tx, error)
}

// VersionRepository handles persistence of immutable forecast versions.
// A version and its per-method results and recommendations are written
// once and never updated; corrections create new versions.
type VersionRepository struct {
	pool DatabasePool
}

// NewVersionRepository creates a new version repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*VersionRepository: The initialized repository.
func NewVersionRepository(pool DatabasePool) *VersionRepository {
	return &VersionRepository{
		pool: pool,
	}
}

// CreateVersion persists a complete run snapshot in one transaction:
// the version row, one row per (category, method) outcome and one
// recommendation row per category that produced one.
//
// Parameters:
//
//	ctx: Context.
//	version: The fully assembled version. ID and CreatedAt must be set.
//
// Returns:
//
//	error: Error if any insert fails; nothing is persisted in that case.
func (r *VersionRepository) CreateVersion(ctx context.Context, version *models.ForecastVersion) error {
	params, err := json.Marshal(version.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode run parameters: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	versionQuery := `
		INSERT INTO forecast_versions (id, year, month, label, notes, parameters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, versionQuery,
		version.ID,
		version.Period.Year,
		int(version.Period.Month),
		version.Label,
		version.Notes,
		params,
		version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert forecast version: %w", err)
	}

	resultQuery := `
		INSERT INTO forecast_results (version_id, category, method, amount, error_kind, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	recommendationQuery := `
		INSERT INTO forecast_recommendations (version_id, category, amount, confidence, trend)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, cat := range version.Categories {
		for _, res := range cat.Results {
			_, err = tx.Exec(ctx, resultQuery,
				version.ID,
				cat.Category,
				string(res.Method),
				res.Amount,
				string(res.ErrorKind),
				string(res.Confidence),
			)
			if err != nil {
				return fmt.Errorf("failed to insert forecast result for %s: %w", cat.Category, err)
			}
		}

		if cat.Recommendation != nil {
			_, err = tx.Exec(ctx, recommendationQuery,
				version.ID,
				cat.Category,
				cat.Recommendation.Amount,
				string(cat.Recommendation.Confidence),
				string(cat.Recommendation.Trend),
			)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation for %s: %w", cat.Category, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit forecast version: %w", err)
	}

	return nil
}

// GetVersion loads a version snapshot with all of its categories.
//
// Parameters:
//
//	ctx: Context.
//	id: The version UUID.
//
// Returns:
//
//	*models.ForecastVersion: The stored snapshot.
//	error: ErrVersionNotFound when the id is unknown.
func (r *VersionRepository) GetVersion(ctx context.Context, id string) (*models.ForecastVersion, error) {
	query := `
		SELECT id, year, month, label, notes, parameters, created_at
		FROM forecast_versions
		WHERE id = $1
	`

	var (
		version     models.ForecastVersion
		year, month int
		params      []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&version.ID,
		&year,
		&month,
		&version.Label,
		&version.Notes,
		&params,
		&version.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get forecast version: %w", err)
	}

	version.Period = models.NewPeriod(year, month)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &version.Parameters); err != nil {
			return nil, fmt.Errorf("failed to decode run parameters: %w", err)
		}
	}

	if err := r.loadResults(ctx, &version); err != nil {
		return nil, err
	}
	if err := r.loadRecommendations(ctx, &version); err != nil {
		return nil, err
	}

	return &version, nil
}

// FindLatestVersionForPeriod returns the most recently created version
// covering the given period.
//
// Parameters:
//
//	ctx: Context.
//	period: The forecast period.
//
// Returns:
//
//	*models.ForecastVersion: The latest snapshot for the period.
//	error: ErrVersionNotFound when the period has never been forecast.
func (r *VersionRepository) FindLatestVersionForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error) {
	query := `
		SELECT id
		FROM forecast_versions
		WHERE year = $1 AND month = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var id string
	err := r.pool.QueryRow(ctx, query, period.Year, int(period.Month)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to find version for period %s: %w", period.Key(), err)
	}

	return r.GetVersion(ctx, id)
}

// ListVersions returns version summaries without category detail,
// ordered oldest first so the newest snapshot is last.
//
// Parameters:
//
//	ctx: Context.
//	period: Optional period filter; nil lists all periods.
//	limit: Maximum number of summaries; non-positive falls back to the default.
//
// Returns:
//
//	[]models.ForecastVersion: Version summaries.
//	error: Error if retrieval fails.
func (r *VersionRepository) ListVersions(ctx context.Context, period *models.Period, limit int) ([]models.ForecastVersion, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		rows pgx.Rows
		err  error
	)
	if period != nil {
		query := `
			SELECT id, year, month, label, notes, parameters, created_at
			FROM forecast_versions
			WHERE year = $1 AND month = $2
			ORDER BY created_at ASC, id ASC
			LIMIT $3
		`
		rows, err = r.pool.Query(ctx, query, period.Year, int(period.Month), limit)
	} else {
		query := `
			SELECT id, year, month, label, notes, parameters, created_at
			FROM forecast_versions
			ORDER BY created_at ASC, id ASC
			LIMIT $1
		`
		rows, err = r.pool.Query(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list forecast versions: %w", err)
	}
	defer rows.Close()

	var versions []models.ForecastVersion
	for rows.Next() {
		var (
			version     models.ForecastVersion
			year, month int
			params      []byte
		)
		err := rows.Scan(
			&version.ID,
			&year,
			&month,
			&version.Label,
			&version.Notes,
			&params,
			&version.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast version: %w", err)
		}
		version.Period = models.NewPeriod(year, month)
		if len(params) > 0 {
			if err := json.Unmarshal(params, &version.Parameters); err != nil {
				return nil, fmt.Errorf("failed to decode run parameters: %w", err)
			}
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast versions: %w", err)
	}

	return versions, nil
}

// loadResults attaches every stored (category, method) outcome to the
// version, creating category buckets in query order.
func (r *VersionRepository) loadResults(ctx context.Context, version *models.ForecastVersion) error {
	query := `
		SELECT category, method, amount, error_kind, confidence
		FROM forecast_results
		WHERE version_id = $1
		ORDER BY category, CASE method WHEN 'simple' THEN 1 WHEN 'weighted' THEN 2 ELSE 3 END
	`

	rows, err := r.pool.Query(ctx, query, version.ID)
	if err != nil {
		return fmt.Errorf("failed to get forecast results: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var (
			category   string
			method     string
			amount     *decimal.Decimal
			errorKind  string
			confidence string
		)
		if err := rows.Scan(&category, &method, &amount, &errorKind, &confidence); err != nil {
			return fmt.Errorf("failed to scan forecast result: %w", err)
		}

		i, ok := index[category]
		if !ok {
			i = len(version.Categories)
			index[category] = i
			version.Categories = append(version.Categories, models.CategoryForecast{Category: category})
		}
		version.Categories[i].Results = append(version.Categories[i].Results, models.MethodResult{
			Method:     models.ForecastMethod(method),
			Amount:     amount,
			ErrorKind:  models.ErrorKind(errorKind),
			Confidence: models.ConfidenceTier(confidence),
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating forecast results: %w", err)
	}

	return nil
}

// loadRecommendations attaches stored recommendations to the categories
// loaded by loadResults.
func (r *VersionRepository) loadRecommendations(ctx context.Context, version *models.ForecastVersion) error {
	query := `
		SELECT category, amount, confidence, trend
		FROM forecast_recommendations
		WHERE version_id = $1
		ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query, version.ID)
	if err != nil {
		return fmt.Errorf("failed to get forecast recommendations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category   string
			amount     decimal.Decimal
			confidence string
			trend      string
		)
		if err := rows.Scan(&category, &amount, &confidence, &trend); err != nil {
			return fmt.Errorf("failed to scan recommendation: %w", err)
		}

		if cat := version.Category(category); cat != nil {
			cat.Recommendation = &models.Recommendation{
				Amount:     amount,
				Confidence: models.ConfidenceTier(confidence),
				Trend:      models.TrendDirection(trend),
			}
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating recommendations: %w", err)
	}

	return nil
}
