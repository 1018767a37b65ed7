package usecase

import (
	"context"
	"math"
	"testing"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/strategies"
	"DemandCast/pkg/logger"
)

func panelSeries(id string, values []float64) models.DemandSeries {
	return models.DemandSeries{
		Entity:      models.Entity{Level: models.LevelProduct, ID: id},
		Granularity: models.GranularityDaily,
		Points:      dailyPoints(testStart, values),
	}
}

func TestPanelForecastRowCounts(t *testing.T) {
	pool := []models.DemandSeries{
		panelSeries("P-1", flatValues(30, 10)),
		panelSeries("P-2", flatValues(30, 20)),
		panelSeries("P-3", flatValues(strategies.MinSeriesLen-1, 5)),
	}

	rows, skipped, err := NewPanelModel(logger.Nop()).Forecast(context.Background(), pool, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 short series skipped, got %d", skipped)
	}
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows (2 entities x horizon 6), got %d", len(rows))
	}
	for i, r := range rows {
		if r.HasBounds {
			t.Fatalf("row %d: panel rows carry no native bounds", i)
		}
		if r.Model != PanelModelName {
			t.Fatalf("row %d: unexpected model %q", i, r.Model)
		}
	}
}

func TestPanelRolloutPeriodsAreContiguous(t *testing.T) {
	pool := []models.DemandSeries{panelSeries("P-1", flatValues(25, 10))}

	rows, _, err := NewPanelModel(logger.Nop()).Forecast(context.Background(), pool, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		want := testStart.AddDate(0, 0, 25+i)
		if !r.Period.Equal(want) {
			t.Fatalf("row %d: expected period %v, got %v", i, want, r.Period)
		}
	}
}

func TestPanelPredictionsStayNearLevelAndNonNegative(t *testing.T) {
	var pool []models.DemandSeries
	levels := []float64{5, 50, 500}
	for i, lvl := range levels {
		vals := make([]float64, 60)
		for t := range vals {
			vals[t] = lvl + 0.1*lvl*math.Sin(2*math.Pi*float64(t)/7)
		}
		pool = append(pool, panelSeries([]string{"P-1", "P-2", "P-3"}[i], vals))
	}

	rows, _, err := NewPanelModel(logger.Nop()).Forecast(context.Background(), pool, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byEntity := map[string][]models.ForecastRow{}
	for _, r := range rows {
		byEntity[r.EntityID] = append(byEntity[r.EntityID], r)
	}
	for i, lvl := range levels {
		id := []string{"P-1", "P-2", "P-3"}[i]
		for _, r := range byEntity[id] {
			if r.Point < 0 {
				t.Fatalf("entity %s: negative prediction %v", id, r.Point)
			}
			if math.Abs(r.Point-lvl) > lvl {
				t.Fatalf("entity %s: prediction %v drifted far from level %v", id, r.Point, lvl)
			}
		}
	}
}

func TestPanelZeroHorizon(t *testing.T) {
	pool := []models.DemandSeries{panelSeries("P-1", flatValues(30, 10))}
	rows, skipped, err := NewPanelModel(logger.Nop()).Forecast(context.Background(), pool, 0)
	if err != nil || rows != nil || skipped != 0 {
		t.Fatalf("expected empty result for zero horizon, got rows=%d skipped=%d err=%v", len(rows), skipped, err)
	}
}

func TestPanelAllShortSeries(t *testing.T) {
	pool := []models.DemandSeries{
		panelSeries("P-1", flatValues(3, 1)),
		panelSeries("P-2", flatValues(5, 1)),
	}
	rows, skipped, err := NewPanelModel(logger.Nop()).Forecast(context.Background(), pool, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 || skipped != 2 {
		t.Fatalf("expected all entities skipped, got rows=%d skipped=%d", len(rows), skipped)
	}
}
