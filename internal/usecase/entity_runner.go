package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	domsvc "DemandCast/internal/domain/service"
	"DemandCast/internal/services/series"
	"DemandCast/internal/services/strategies"
	"DemandCast/pkg/logger"
)

const (
	skipReasonShortSeries = "short_series"
	skipReasonFitFailed   = "fit_failed"
	skipReasonFetchFailed = "fetch_failed"
	skipReasonPanic       = "panic"
)

// EntityRunner fans per-entity forecasting across a bounded worker pool. One
// entity failing, however it fails, only ever loses that entity's rows.
type EntityRunner struct {
	series  *series.Provider
	metrics domrepo.Metrics
	l       *logger.Logger
	workers int
}

// NewEntityRunner creates a runner. workers <= 0 selects one worker per
// available CPU minus one, keeping a core free for the persistence path.
func NewEntityRunner(provider *series.Provider, metrics domrepo.Metrics, l *logger.Logger, workers int) *EntityRunner {
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
	}
	if workers < 1 {
		workers = 1
	}
	return &EntityRunner{series: provider, metrics: metrics, l: l, workers: workers}
}

type entityOutcome struct {
	rows []models.ForecastRow
	skip string
}

// Run forecasts every entity with the given strategy and returns the merged
// rows plus the number of skipped entities. With parallel false the pool
// degrades to a single worker, which keeps ordering deterministic for
// debugging.
func (r *EntityRunner) Run(ctx context.Context, strategy domsvc.Strategy, entities []models.Entity, granularity models.Granularity, horizon int, parallel bool) ([]models.ForecastRow, int) {
	if len(entities) == 0 {
		return nil, 0
	}

	workers := r.workers
	if !parallel {
		workers = 1
	}
	if workers > len(entities) {
		workers = len(entities)
	}

	jobs := make(chan models.Entity, len(entities))
	results := make(chan entityOutcome, len(entities))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entity := range jobs {
				results <- r.forecastOne(ctx, strategy, entity, granularity, horizon)
			}
		}()
	}

	for _, e := range entities {
		jobs <- e
	}
	close(jobs)
	wg.Wait()
	close(results)

	var rows []models.ForecastRow
	skipped := 0
	for out := range results {
		if out.skip != "" {
			skipped++
			continue
		}
		rows = append(rows, out.rows...)
	}
	return rows, skipped
}

func (r *EntityRunner) forecastOne(ctx context.Context, strategy domsvc.Strategy, entity models.Entity, granularity models.Granularity, horizon int) (out entityOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.l.Error("entity forecast panicked",
				logger.String("entity", entity.Key()),
				logger.String("model", strategy.Name()),
				logger.Any("panic", rec),
			)
			r.metrics.RecordError("panic")
			out = r.skip(entity, skipReasonPanic)
		}
	}()

	s, err := r.series.Demand(ctx, entity, granularity)
	if err != nil {
		r.l.Warn("series fetch failed",
			logger.String("entity", entity.Key()),
			logger.Error(err),
		)
		r.metrics.RecordError("fetch")
		return r.skip(entity, skipReasonFetchFailed)
	}
	if s.Len() < strategies.MinSeriesLen {
		return r.skip(entity, skipReasonShortSeries)
	}

	rows, err := strategy.Forecast(ctx, s, horizon)
	if err != nil {
		r.l.Warn("model fit failed",
			logger.String("entity", entity.Key()),
			logger.String("model", strategy.Name()),
			logger.Error(err),
		)
		return r.skip(entity, skipReasonFitFailed)
	}
	if len(rows) == 0 {
		return r.skip(entity, skipReasonFitFailed)
	}
	// Backends return exactly horizon rows or nothing; anything else is a
	// broken fit and the entity's rows are not trustworthy.
	if len(rows) != horizon {
		r.l.Warn("model returned unexpected row count",
			logger.String("entity", entity.Key()),
			logger.String("model", strategy.Name()),
			logger.Int("rows", len(rows)),
			logger.Int("horizon", horizon),
		)
		return r.skip(entity, skipReasonFitFailed)
	}
	return entityOutcome{rows: rows}
}

func (r *EntityRunner) skip(entity models.Entity, reason string) entityOutcome {
	r.metrics.RecordEntitySkipped(string(entity.Level), reason)
	r.l.Debug(fmt.Sprintf("entity skipped: %s", reason),
		logger.String("entity", entity.Key()),
	)
	return entityOutcome{skip: reason}
}
