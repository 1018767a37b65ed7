package usecase

import (
	"context"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/series"
	"DemandCast/internal/services/strategies"
	"DemandCast/pkg/logger"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func productEntities(ids ...string) []models.Entity {
	out := make([]models.Entity, len(ids))
	for i, id := range ids {
		out[i] = models.Entity{Level: models.LevelProduct, ID: id}
	}
	return out
}

func newTestRunner(reader *fakeReader, metrics *fakeMetrics, workers int) *EntityRunner {
	provider := series.NewProvider(reader, nil)
	return NewEntityRunner(provider, metrics, logger.Nop(), workers)
}

func TestEntityRunnerMergesAllEntities(t *testing.T) {
	reader := &fakeReader{series: map[string][]models.SeriesPoint{}}
	for _, id := range []string{"P-1", "P-2", "P-3"} {
		key := models.Entity{Level: models.LevelProduct, ID: id}.Key()
		reader.series[key] = dailyPoints(testStart, flatValues(20, 5))
	}
	metrics := newFakeMetrics()
	runner := newTestRunner(reader, metrics, 2)

	rows, skipped := runner.Run(context.Background(), &fakeStrategy{}, productEntities("P-1", "P-2", "P-3"), models.GranularityDaily, 4, true)

	if skipped != 0 {
		t.Fatalf("expected no skips, got %d", skipped)
	}
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows (3 entities x horizon 4), got %d", len(rows))
	}
}

func TestEntityRunnerIsolatesPanics(t *testing.T) {
	reader := &fakeReader{series: map[string][]models.SeriesPoint{}}
	for _, id := range []string{"P-1", "P-2", "P-3"} {
		key := models.Entity{Level: models.LevelProduct, ID: id}.Key()
		reader.series[key] = dailyPoints(testStart, flatValues(20, 5))
	}
	metrics := newFakeMetrics()
	runner := newTestRunner(reader, metrics, 2)

	rows, skipped := runner.Run(context.Background(), &fakeStrategy{panicOn: "P-2"}, productEntities("P-1", "P-2", "P-3"), models.GranularityDaily, 3, true)

	if skipped != 1 {
		t.Fatalf("expected 1 skipped entity, got %d", skipped)
	}
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows from surviving entities, got %d", len(rows))
	}
	if metrics.skipped[skipReasonPanic] != 1 {
		t.Fatalf("expected panic skip recorded, got %+v", metrics.skipped)
	}
}

func TestEntityRunnerSkipsShortSeries(t *testing.T) {
	reader := &fakeReader{series: map[string][]models.SeriesPoint{
		models.Entity{Level: models.LevelProduct, ID: "P-1"}.Key(): dailyPoints(testStart, flatValues(strategies.MinSeriesLen-1, 5)),
		models.Entity{Level: models.LevelProduct, ID: "P-2"}.Key(): dailyPoints(testStart, flatValues(strategies.MinSeriesLen, 5)),
	}}
	metrics := newFakeMetrics()
	runner := newTestRunner(reader, metrics, 1)

	rows, skipped := runner.Run(context.Background(), &fakeStrategy{}, productEntities("P-1", "P-2"), models.GranularityDaily, 2, false)

	if skipped != 1 {
		t.Fatalf("expected 1 skipped entity, got %d", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if metrics.skipped[skipReasonShortSeries] != 1 {
		t.Fatalf("expected short-series skip recorded, got %+v", metrics.skipped)
	}
}

func TestEntityRunnerSkipsFetchFailures(t *testing.T) {
	reader := &fakeReader{
		series: map[string][]models.SeriesPoint{
			models.Entity{Level: models.LevelProduct, ID: "P-2"}.Key(): dailyPoints(testStart, flatValues(20, 5)),
		},
		fetchErr: map[string]error{
			models.Entity{Level: models.LevelProduct, ID: "P-1"}.Key(): context.DeadlineExceeded,
		},
	}
	metrics := newFakeMetrics()
	runner := newTestRunner(reader, metrics, 1)

	rows, skipped := runner.Run(context.Background(), &fakeStrategy{}, productEntities("P-1", "P-2"), models.GranularityDaily, 2, false)

	if skipped != 1 || len(rows) != 2 {
		t.Fatalf("expected 1 skip and 2 rows, got %d skips, %d rows", skipped, len(rows))
	}
	if metrics.errors["fetch"] != 1 {
		t.Fatalf("expected fetch error recorded, got %+v", metrics.errors)
	}
}

func TestEntityRunnerSkipsShortRowCount(t *testing.T) {
	reader := &fakeReader{series: map[string][]models.SeriesPoint{
		models.Entity{Level: models.LevelProduct, ID: "P-1"}.Key(): dailyPoints(testStart, flatValues(20, 5)),
		models.Entity{Level: models.LevelProduct, ID: "P-2"}.Key(): dailyPoints(testStart, flatValues(20, 5)),
	}}
	metrics := newFakeMetrics()
	runner := newTestRunner(reader, metrics, 1)

	rows, skipped := runner.Run(context.Background(), &fakeStrategy{truncateOn: "P-1"}, productEntities("P-1", "P-2"), models.GranularityDaily, 3, false)

	if skipped != 1 {
		t.Fatalf("expected truncated entity skipped, got %d skips", skipped)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows from the complete entity only, got %d", len(rows))
	}
	for _, r := range rows {
		if r.EntityID != "P-2" {
			t.Fatalf("unexpected row for entity %s", r.EntityID)
		}
	}
	if metrics.skipped[skipReasonFitFailed] != 1 {
		t.Fatalf("expected fit-failed skip recorded, got %+v", metrics.skipped)
	}
}

func TestEntityRunnerEmptyResultCountsAsSkip(t *testing.T) {
	reader := &fakeReader{series: map[string][]models.SeriesPoint{
		models.Entity{Level: models.LevelProduct, ID: "P-1"}.Key(): dailyPoints(testStart, flatValues(20, 5)),
	}}
	metrics := newFakeMetrics()
	runner := newTestRunner(reader, metrics, 1)

	rows, skipped := runner.Run(context.Background(), &fakeStrategy{emptyOn: "P-1"}, productEntities("P-1"), models.GranularityDaily, 2, false)

	if skipped != 1 || len(rows) != 0 {
		t.Fatalf("expected entity skipped on empty result, got %d skips, %d rows", skipped, len(rows))
	}
	if metrics.skipped[skipReasonFitFailed] != 1 {
		t.Fatalf("expected fit-failed skip recorded, got %+v", metrics.skipped)
	}
}
