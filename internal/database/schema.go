package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// schemaSQL holds the idempotent DDL for every table the engine owns.
// Versions are immutable snapshots, so dependent rows cascade on the
// rare administrative delete but are never updated in place.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS forecast_versions (
    id UUID PRIMARY KEY,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    label TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    parameters JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_forecast_versions_period
    ON forecast_versions (year, month, created_at DESC);

CREATE TABLE IF NOT EXISTS forecast_results (
    version_id UUID NOT NULL REFERENCES forecast_versions(id) ON DELETE CASCADE,
    category TEXT NOT NULL,
    method TEXT NOT NULL CHECK (method IN ('simple', 'weighted', 'trending')),
    amount NUMERIC(18,2),
    error_kind TEXT NOT NULL DEFAULT '',
    confidence TEXT NOT NULL DEFAULT 'low',
    PRIMARY KEY (version_id, category, method)
);

CREATE TABLE IF NOT EXISTS forecast_recommendations (
    version_id UUID NOT NULL REFERENCES forecast_versions(id) ON DELETE CASCADE,
    category TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    confidence TEXT NOT NULL,
    trend TEXT NOT NULL DEFAULT 'flat',
    PRIMARY KEY (version_id, category)
);

CREATE TABLE IF NOT EXISTS actuals (
    year INTEGER NOT NULL,
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    category TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    received_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (year, month, category)
);

CREATE TABLE IF NOT EXISTS accuracy_metrics (
    version_id UUID NOT NULL REFERENCES forecast_versions(id) ON DELETE CASCADE,
    category TEXT NOT NULL,
    method TEXT NOT NULL CHECK (method IN ('simple', 'weighted', 'trending')),
    absolute_error NUMERIC(18,2) NOT NULL,
    pct_error DOUBLE PRECISION,
    computed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (version_id, category, method)
);

CREATE INDEX IF NOT EXISTS idx_accuracy_metrics_category
    ON accuracy_metrics (category, computed_at);

CREATE TABLE IF NOT EXISTS adaptive_weights (
    category TEXT NOT NULL,
    method TEXT NOT NULL CHECK (method IN ('simple', 'weighted', 'trending')),
    weight DOUBLE PRECISION NOT NULL,
    sample_count INTEGER NOT NULL DEFAULT 0,
    confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (category, method)
);
`

// EnsureSchema applies the DDL above. Every statement is idempotent, so
// the call is safe on every startup.
func EnsureSchema(ctx context.Context, pool DatabasePool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}
	logrus.Debug("Database schema ensured")
	return nil
}
