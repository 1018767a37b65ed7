package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	domsvc "DemandCast/internal/domain/service"
	"DemandCast/internal/services/series"
	"DemandCast/pkg/cache"
	"DemandCast/pkg/logger"
)

var (
	// ErrRunInProgress is returned while another run holds the single-writer
	// slot; the API maps it to 409.
	ErrRunInProgress = errors.New("a forecast run is already in progress")
	// ErrUnknownModel is returned for a model name no backend implements.
	ErrUnknownModel = errors.New("unknown model")
	// ErrNoRuns is returned by Latest before any run has completed.
	ErrNoRuns = errors.New("no completed runs")
)

const (
	// fallbackBandRatio is the relative interval applied to rows whose
	// backend produced no native uncertainty band.
	fallbackBandRatio = 0.2

	latestRunKey    = "runs:latest"
	runSummaryTTL   = 24 * time.Hour
	runIDTimeFormat = "20060102150405"
)

// ForecastRunUseCase orchestrates one end-to-end run: enumerate entities per
// level, forecast them with the selected backend, reconcile across levels,
// persist, then publish and cache the run summary. Only one run may execute
// at a time; the forecast store has a single writer.
type ForecastRunUseCase struct {
	reader     domrepo.HistoryReader
	store      domrepo.ForecastStore
	publisher  domrepo.RunPublisher
	cache      cache.Service
	metrics    domrepo.Metrics
	provider   *series.Provider
	runner     *EntityRunner
	panel      *PanelModel
	reconciler *Reconciler
	backends   map[string]domsvc.Strategy
	l          *logger.Logger

	running atomic.Bool
}

// NewForecastRunUseCase wires the orchestrator. publisher and c may be nil
// when Kafka or the cache are disabled.
func NewForecastRunUseCase(
	reader domrepo.HistoryReader,
	store domrepo.ForecastStore,
	publisher domrepo.RunPublisher,
	c cache.Service,
	metrics domrepo.Metrics,
	provider *series.Provider,
	runner *EntityRunner,
	panel *PanelModel,
	reconciler *Reconciler,
	backends []domsvc.Strategy,
	l *logger.Logger,
) *ForecastRunUseCase {
	byName := make(map[string]domsvc.Strategy, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return &ForecastRunUseCase{
		reader:     reader,
		store:      store,
		publisher:  publisher,
		cache:      c,
		metrics:    metrics,
		provider:   provider,
		runner:     runner,
		panel:      panel,
		reconciler: reconciler,
		backends:   byName,
		l:          l,
	}
}

// Run executes one forecast run and returns its summary. It fails fast on an
// unknown model or a concurrent run; per-entity failures only shrink the
// output.
func (uc *ForecastRunUseCase) Run(ctx context.Context, params models.RunParams) (*models.RunSummary, error) {
	if params.Model != PanelModelName {
		if _, ok := uc.backends[params.Model]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, params.Model)
		}
	}
	if !uc.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer uc.running.Store(false)

	runID := params.RunID
	if runID == "" {
		runID = "run_" + time.Now().UTC().Format(runIDTimeFormat)
	}
	started := time.Now()

	uc.l.Info("forecast run started",
		logger.String("run_id", runID),
		logger.String("model", params.Model),
		logger.String("granularity", string(params.Granularity)),
		logger.Int("horizon", params.Horizon),
		logger.Bool("parallel", params.Parallel),
	)

	if err := uc.store.EnsureSchema(ctx); err != nil {
		uc.metrics.RecordError("schema")
		return nil, fmt.Errorf("ensure forecast schema: %w", err)
	}

	var (
		allRows   []models.ForecastRow
		attempted int
		skipped   int
	)
	for _, level := range params.Levels {
		rows, levelAttempted, levelSkipped, err := uc.runLevel(ctx, level, params)
		if err != nil {
			uc.metrics.RecordError("level")
			return nil, fmt.Errorf("level %s: %w", level, err)
		}
		uc.metrics.RecordRows(params.Model, string(level), len(rows))
		attempted += levelAttempted
		skipped += levelSkipped
		allRows = append(allRows, rows...)
	}

	generatedAt := time.Now().UTC()
	for i := range allRows {
		allRows[i].RunID = runID
		allRows[i].GeneratedAt = generatedAt
		if !allRows[i].HasBounds {
			applyFallbackBand(&allRows[i])
		}
	}

	reconciled := false
	if params.Reconcile {
		mapping, err := uc.reader.WarehouseRegions(ctx)
		if err != nil {
			uc.l.Warn("reconciliation skipped: warehouse dimension unavailable", logger.Error(err))
			uc.metrics.RecordError("reconcile")
		} else {
			reconciled = uc.reconciler.Apply(allRows, mapping) > 0
		}
	}

	if len(allRows) == 0 {
		uc.l.Warn("run produced no forecast rows",
			logger.String("run_id", runID),
			logger.Int("entities_attempted", attempted),
			logger.Int("entities_skipped", skipped),
		)
	}

	if err := uc.store.Save(ctx, runID, allRows, params.Overwrite); err != nil {
		uc.metrics.RecordError("persist")
		return nil, fmt.Errorf("persist run %s: %w", runID, err)
	}

	finished := time.Now()
	summary := &models.RunSummary{
		RunID:         runID,
		Model:         params.Model,
		Granularity:   params.Granularity,
		Horizon:       params.Horizon,
		Levels:        params.Levels,
		Attempted:     attempted,
		Skipped:       skipped,
		Rows:          len(allRows),
		Reconciled:    reconciled,
		StartedAt:     started.UTC(),
		FinishedAt:    finished.UTC(),
		Duration:      finished.Sub(started),
		DurationMilli: finished.Sub(started).Milliseconds(),
	}
	uc.metrics.RecordRunDuration(params.Model, summary.Duration.Seconds())

	uc.cacheSummary(ctx, summary)
	uc.publishSummary(ctx, summary)

	uc.l.Info("forecast run finished",
		logger.String("run_id", runID),
		logger.Int("rows", summary.Rows),
		logger.Int("entities_attempted", attempted),
		logger.Int("entities_skipped", skipped),
		logger.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// Latest returns the most recent completed run summary from the cache.
func (uc *ForecastRunUseCase) Latest(ctx context.Context) (*models.RunSummary, error) {
	if uc.cache == nil {
		return nil, ErrNoRuns
	}
	var summary models.RunSummary
	if err := uc.cache.Get(ctx, latestRunKey, &summary); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNoRuns
		}
		return nil, err
	}
	return &summary, nil
}

// Health reports readiness of the history source.
func (uc *ForecastRunUseCase) Health(ctx context.Context) error {
	return uc.reader.Health(ctx)
}

func (uc *ForecastRunUseCase) runLevel(ctx context.Context, level models.Level, params models.RunParams) ([]models.ForecastRow, int, int, error) {
	ids, err := uc.reader.DistinctEntities(ctx, level, params.SampleLimit)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("enumerate entities: %w", err)
	}
	entities := make([]models.Entity, len(ids))
	for i, id := range ids {
		entities[i] = models.Entity{Level: level, ID: id}
	}
	uc.provider.Invalidate(ctx, params.Granularity, entities)

	if len(entities) == 0 {
		uc.l.Warn("no entities at level", logger.String("level", string(level)))
		return nil, 0, 0, nil
	}

	if params.Model == PanelModelName {
		rows, skipped, err := uc.runPanelLevel(ctx, entities, params)
		return rows, len(entities), skipped, err
	}

	rows, skipped := uc.runner.Run(ctx, uc.backends[params.Model], entities, params.Granularity, params.Horizon, params.Parallel)
	return rows, len(entities), skipped, nil
}

func (uc *ForecastRunUseCase) runPanelLevel(ctx context.Context, entities []models.Entity, params models.RunParams) ([]models.ForecastRow, int, error) {
	pool := make([]models.DemandSeries, 0, len(entities))
	skipped := 0
	for _, e := range entities {
		s, err := uc.provider.Demand(ctx, e, params.Granularity)
		if err != nil {
			uc.l.Warn("series fetch failed",
				logger.String("entity", e.Key()),
				logger.Error(err),
			)
			uc.metrics.RecordError("fetch")
			uc.metrics.RecordEntitySkipped(string(e.Level), skipReasonFetchFailed)
			skipped++
			continue
		}
		pool = append(pool, s)
	}

	rows, shortSkipped, err := uc.panel.Forecast(ctx, pool, params.Horizon)
	if err != nil {
		return nil, 0, fmt.Errorf("panel model: %w", err)
	}
	for i := 0; i < shortSkipped; i++ {
		uc.metrics.RecordEntitySkipped(string(entities[0].Level), skipReasonShortSeries)
	}
	return rows, skipped + shortSkipped, nil
}

func (uc *ForecastRunUseCase) cacheSummary(ctx context.Context, summary *models.RunSummary) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, latestRunKey, summary, runSummaryTTL); err != nil {
		uc.l.Warn("caching run summary failed", logger.Error(err))
	}
	if err := uc.cache.Set(ctx, cache.Key("runs", summary.RunID), summary, runSummaryTTL); err != nil {
		uc.l.Warn("caching run summary failed", logger.Error(err))
	}
}

func (uc *ForecastRunUseCase) publishSummary(ctx context.Context, summary *models.RunSummary) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishRunCompleted(ctx, *summary); err != nil {
		uc.l.Warn("publishing run event failed",
			logger.String("run_id", summary.RunID),
			logger.Error(err),
		)
		uc.metrics.RecordError("publish")
	}
}

// applyFallbackBand fills a relative interval around the point estimate for
// rows without a native band.
func applyFallbackBand(row *models.ForecastRow) {
	lo := row.Point * (1 - fallbackBandRatio)
	hi := row.Point * (1 + fallbackBandRatio)
	if lo > hi {
		lo, hi = hi, lo
	}
	row.Lower, row.Upper, row.HasBounds = lo, hi, true
}
