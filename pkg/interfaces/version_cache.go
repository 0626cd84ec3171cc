package interfaces

import (
	"context"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// VersionCacheStats tracks cache performance metrics
type VersionCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// VersionCache defines the contract for caching forecast version snapshots.
// Versions are immutable once written, so cached entries never go stale and
// no invalidation path is needed.
type VersionCache interface {
	// Get retrieves a cached version snapshot by its ID.
	Get(ctx context.Context, versionID string) (*models.ForecastVersion, bool)
	// Set stores a version snapshot under its ID.
	Set(ctx context.Context, version *models.ForecastVersion)
	// GetStats returns the current cache statistics.
	GetStats() VersionCacheStats
	// LogStats logs the current cache statistics.
	LogStats()
	// Clear removes all cached version snapshots.
	Clear(ctx context.Context) error
}
