package database

import (
	"context"
	"fmt"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// WeightsRepository handles the learned per-category blending weights.
type WeightsRepository struct {
	pool DatabasePool
}

// NewWeightsRepository creates a new weights repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*WeightsRepository: The initialized repository.
func NewWeightsRepository(pool DatabasePool) *WeightsRepository {
	return &WeightsRepository{
		pool: pool,
	}
}

// UpsertWeights stores a category's full learned weight set, one row per
// method, replacing whatever was learned before. The rows are written in a
// single transaction so two racing refreshes cannot interleave half-written
// sets.
//
// Parameters:
//
//	ctx: Context.
//	weights: The rows to store; typically the three methods of one category.
//
// Returns:
//
//	error: Error if any write fails.
func (r *WeightsRepository) UpsertWeights(ctx context.Context, weights []models.AdaptiveWeight) error {
	if len(weights) == 0 {
		return nil
	}

	query := `
		INSERT INTO adaptive_weights (category, method, weight, sample_count, confidence_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category, method)
		DO UPDATE SET
			weight = EXCLUDED.weight,
			sample_count = EXCLUDED.sample_count,
			confidence_score = EXCLUDED.confidence_score,
			updated_at = CURRENT_TIMESTAMP
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin weight update transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for i := range weights {
		w := &weights[i]
		_, err := tx.Exec(ctx, query,
			w.Category,
			string(w.Method),
			w.Weight,
			w.SampleCount,
			w.ConfidenceScore,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert weight for %s/%s: %w", w.Category, w.Method, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit weight update: %w", err)
	}

	return nil
}

// GetWeights returns the stored weight rows for one category in
// canonical method order.
//
// Parameters:
//
//	ctx: Context.
//	category: The accrual category.
//
// Returns:
//
//	[]models.AdaptiveWeight: Stored rows; empty when nothing was learned.
//	error: Error if retrieval fails.
func (r *WeightsRepository) GetWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error) {
	query := `
		SELECT category, method, weight, sample_count, confidence_score, updated_at
		FROM adaptive_weights
		WHERE category = $1
		ORDER BY CASE method WHEN 'simple' THEN 1 WHEN 'weighted' THEN 2 ELSE 3 END
	`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get weights for %s: %w", category, err)
	}
	defer rows.Close()

	var weights []models.AdaptiveWeight
	for rows.Next() {
		var (
			w      models.AdaptiveWeight
			method string
		)
		err := rows.Scan(
			&w.Category,
			&method,
			&w.Weight,
			&w.SampleCount,
			&w.ConfidenceScore,
			&w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adaptive weight: %w", err)
		}
		w.Method = models.ForecastMethod(method)
		weights = append(weights, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adaptive weights: %w", err)
	}

	return weights, nil
}

// GetWeightSet builds the blending map for one category. A category
// with no learned rows yields a nil set so callers can fall back to
// equal weights.
//
// Parameters:
//
//	ctx: Context.
//	category: The accrual category.
//
// Returns:
//
//	models.WeightSet: The learned weights, or nil when none exist.
//	error: Error if retrieval fails.
func (r *WeightsRepository) GetWeightSet(ctx context.Context, category string) (models.WeightSet, error) {
	weights, err := r.GetWeights(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(weights) == 0 {
		return nil, nil
	}

	set := make(models.WeightSet, len(weights))
	for _, w := range weights {
		set[w.Method] = w.Weight
	}
	return set, nil
}

// GetAllWeightSets returns the learned weights for every category,
// keyed by category name. Used by forecast runs to resolve blending
// weights in one round trip.
//
// Parameters:
//
//	ctx: Context.
//
// Returns:
//
//	map[string]models.WeightSet: Weight sets by category; empty map when
//	nothing has been learned yet.
//	error: Error if retrieval fails.
func (r *WeightsRepository) GetAllWeightSets(ctx context.Context) (map[string]models.WeightSet, error) {
	query := `
		SELECT category, method, weight
		FROM adaptive_weights
		ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get adaptive weights: %w", err)
	}
	defer rows.Close()

	sets := make(map[string]models.WeightSet)
	for rows.Next() {
		var (
			category string
			method   string
			weight   float64
		)
		if err := rows.Scan(&category, &method, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan adaptive weight: %w", err)
		}
		if sets[category] == nil {
			sets[category] = make(models.WeightSet)
		}
		sets[category][models.ForecastMethod(method)] = weight
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adaptive weights: %w", err)
	}

	return sets, nil
}
