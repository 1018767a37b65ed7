package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// ClickHouseForecastStore persists forecast rows to the gold layer. A write
// failure here is fatal for the run: an incomplete forecast write is worse
// than a visible failure.
type ClickHouseForecastStore struct {
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

// NewClickHouseForecastStore creates the forecast writer for database.table.
func NewClickHouseForecastStore(ch *pkgch.Client, database, table string, l *applogger.Logger) *ClickHouseForecastStore {
	return &ClickHouseForecastStore{db: ch.DB(), database: database, table: table, l: l}
}

func (s *ClickHouseForecastStore) fqTable() string { return s.database + "." + s.table }

// EnsureSchema creates the destination database and table if absent. Safe to
// call before every run.
func (s *ClickHouseForecastStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            period Date,
            point_estimate Float64,
            lower_bound Float64,
            upper_bound Float64,
            granularity LowCardinality(String),
            model LowCardinality(String),
            level LowCardinality(String),
            entity_id String,
            run_id String,
            generated_at DateTime
        ) ENGINE = MergeTree ORDER BY (run_id, level, entity_id, period)`, s.fqTable()),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure forecast schema: %w", err)
		}
	}
	return nil
}

// Save writes all rows for runID in chunked batches. In overwrite mode it
// first deletes prior rows for the same runID, so rerunning a run leaves
// exactly one set of rows; the delete happens even when rows is empty, so an
// overwriting rerun that produced nothing does not leave stale rows behind.
func (s *ClickHouseForecastStore) Save(ctx context.Context, runID string, rows []models.ForecastRow, overwrite bool) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	if overwrite {
		q := fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.fqTable())
		if _, err := s.db.ExecContext(ctx, q, runID); err != nil {
			return fmt.Errorf("delete run %s: %w", runID, err)
		}
	}

	if len(rows) == 0 {
		if s.l != nil {
			s.l.Warn("no forecast rows to save", applogger.String("run_id", runID))
		}
		return nil
	}

	start := time.Now()
	const chunkSize = 2000
	for lo := 0; lo < len(rows); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(rows) {
			hi = len(rows)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*10)
		for _, r := range rows[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Period,
				r.Point,
				r.Lower,
				r.Upper,
				string(r.Granularity),
				r.Model,
				string(r.Level),
				r.EntityID,
				runID,
				r.GeneratedAt,
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (period, point_estimate, lower_bound, upper_bound, granularity, model, level, entity_id, run_id, generated_at) VALUES %s",
			s.fqTable(), strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert forecast rows: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("forecast rows saved",
			applogger.String("run_id", runID),
			applogger.Int("rows", len(rows)),
			applogger.Bool("overwrite", overwrite),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

var _ domrepo.ForecastStore = (*ClickHouseForecastStore)(nil)
