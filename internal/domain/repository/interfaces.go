package repository

import (
	"context"

	"DemandCast/internal/domain/models"
)

// HistoryReader provides read-only access to the validated order history
// produced by the upstream cleaning pipeline. Safe for concurrent use.
type HistoryReader interface {
	// DistinctEntities enumerates entity identifiers observed at a level.
	// limit <= 0 means no cap. An empty result is valid.
	DistinctEntities(ctx context.Context, level models.Level, limit int) ([]string, error)
	// FetchSeries aggregates observed demand into one raw point per period.
	// The result is ordered but may have gaps; callers materialize it.
	FetchSeries(ctx context.Context, entity models.Entity, granularity models.Granularity) ([]models.SeriesPoint, error)
	// WarehouseRegions returns the warehouse -> region dimension mapping.
	WarehouseRegions(ctx context.Context) (map[string]string, error)
	Health(ctx context.Context) error
}

// ForecastStore persists forecast rows. Exactly one writer per process; the
// orchestrator writes after all worker results are merged.
type ForecastStore interface {
	// EnsureSchema creates the destination database/table if absent.
	EnsureSchema(ctx context.Context) error
	// Save writes all rows scoped by runID in one batch. With overwrite it
	// first deletes prior rows for the same runID, so reruns are idempotent.
	Save(ctx context.Context, runID string, rows []models.ForecastRow, overwrite bool) error
}

// RunPublisher announces completed runs to downstream consumers.
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, summary models.RunSummary) error
	Close() error
}

// Metrics records run-level observability counters.
type Metrics interface {
	RecordRows(model string, level string, n int)
	RecordEntitySkipped(level string, reason string)
	RecordError(kind string)
	RecordRunDuration(model string, seconds float64)
}
