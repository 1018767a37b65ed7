package usecase

import (
	"context"
	"sync"
	"time"

	"DemandCast/internal/domain/models"
)

type fakeReader struct {
	mu       sync.Mutex
	entities map[models.Level][]string
	series   map[string][]models.SeriesPoint
	regions  map[string]string
	fetchErr map[string]error
	fetches  int
}

func (f *fakeReader) DistinctEntities(_ context.Context, level models.Level, limit int) ([]string, error) {
	ids := f.entities[level]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeReader) FetchSeries(_ context.Context, entity models.Entity, _ models.Granularity) ([]models.SeriesPoint, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	if err := f.fetchErr[entity.Key()]; err != nil {
		return nil, err
	}
	return f.series[entity.Key()], nil
}

func (f *fakeReader) WarehouseRegions(context.Context) (map[string]string, error) {
	return f.regions, nil
}

func (f *fakeReader) Health(context.Context) error { return nil }

type fakeStore struct {
	mu        sync.Mutex
	saveErr   error
	runID     string
	rows      []models.ForecastRow
	overwrite bool
	saves     int
}

func (f *fakeStore) EnsureSchema(context.Context) error { return nil }

func (f *fakeStore) Save(_ context.Context, runID string, rows []models.ForecastRow, overwrite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.runID = runID
	f.rows = rows
	f.overwrite = overwrite
	f.saves++
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	summaries []models.RunSummary
	err       error
}

func (f *fakePublisher) PublishRunCompleted(_ context.Context, summary models.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu      sync.Mutex
	rows    int
	skipped map[string]int
	errors  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{skipped: map[string]int{}, errors: map[string]int{}}
}

func (f *fakeMetrics) RecordRows(_, _ string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows += n
}

func (f *fakeMetrics) RecordEntitySkipped(_ string, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped[reason]++
}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[kind]++
}

func (f *fakeMetrics) RecordRunDuration(string, float64) {}

func (f *fakeMetrics) skippedTotal() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.skipped {
		total += n
	}
	return total
}

// fakeStrategy emits one flat row per horizon step, or panics, or returns
// nothing, or truncates its output, depending on its knobs.
type fakeStrategy struct {
	name       string
	panicOn    string
	emptyOn    string
	truncateOn string
	bounds     bool
	pointFunc  func(entity models.Entity) float64
}

func (f *fakeStrategy) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeStrategy) Forecast(_ context.Context, s models.DemandSeries, horizon int) ([]models.ForecastRow, error) {
	if f.panicOn != "" && s.Entity.ID == f.panicOn {
		panic("exploding fit")
	}
	if f.emptyOn != "" && s.Entity.ID == f.emptyOn {
		return nil, nil
	}
	point := 10.0
	if f.pointFunc != nil {
		point = f.pointFunc(s.Entity)
	}
	last, _ := s.LastPeriod()
	rows := make([]models.ForecastRow, horizon)
	for i := range rows {
		rows[i] = models.ForecastRow{
			Period:      last.AddDate(0, 0, i+1),
			Point:       point,
			Granularity: s.Granularity,
			Model:       f.Name(),
			Level:       s.Entity.Level,
			EntityID:    s.Entity.ID,
		}
		if f.bounds {
			rows[i].Lower = point - 1
			rows[i].Upper = point + 1
			rows[i].HasBounds = true
		}
	}
	if f.truncateOn != "" && s.Entity.ID == f.truncateOn {
		return rows[:len(rows)-1], nil
	}
	return rows, nil
}

func dailyPoints(start time.Time, values []float64) []models.SeriesPoint {
	points := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = models.SeriesPoint{Period: start.AddDate(0, 0, i), Quantity: v}
	}
	return points
}

func flatValues(n int, v float64) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = v
	}
	return vals
}
