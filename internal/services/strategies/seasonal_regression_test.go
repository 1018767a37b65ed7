package strategies

import (
	"context"
	"math"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
)

func dailySeries(id string, start time.Time, values []float64) models.DemandSeries {
	points := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = models.SeriesPoint{Period: start.AddDate(0, 0, i), Quantity: v}
	}
	return models.DemandSeries{
		Entity:      models.Entity{Level: models.LevelProduct, ID: id},
		Granularity: models.GranularityDaily,
		Points:      points,
	}
}

func weeklyPattern(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/7)
	}
	return vals
}

func TestSeasonalRegressionShortSeriesIsEmpty(t *testing.T) {
	s := dailySeries("P-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), make([]float64, MinSeriesLen-1))
	rows, err := NewSeasonalRegression().Forecast(context.Background(), s, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty result for short series, got %d rows", len(rows))
	}
}

func TestSeasonalRegressionHorizonAndPeriods(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	s := dailySeries("P-2", start, weeklyPattern(28))

	rows, err := NewSeasonalRegression().Forecast(context.Background(), s, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i, r := range rows {
		wantPeriod := start.AddDate(0, 0, 28+i)
		if !r.Period.Equal(wantPeriod) {
			t.Fatalf("row %d: expected period %v, got %v", i, wantPeriod, r.Period)
		}
		if !r.HasBounds {
			t.Fatalf("row %d: expected native bounds", i)
		}
		if r.Lower > r.Point || r.Point > r.Upper {
			t.Fatalf("row %d: bounds out of order: %v <= %v <= %v", i, r.Lower, r.Point, r.Upper)
		}
		if r.Model != "seasonal-regression" {
			t.Fatalf("row %d: unexpected model %q", i, r.Model)
		}
	}
}

func TestSeasonalRegressionTracksSeasonalPattern(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := dailySeries("P-3", start, weeklyPattern(56))

	rows, err := NewSeasonalRegression().Forecast(context.Background(), s, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		want := 100 + 10*math.Sin(2*math.Pi*float64(56+i)/7)
		if math.Abs(r.Point-want) > 2 {
			t.Fatalf("row %d: expected forecast near %v, got %v", i, want, r.Point)
		}
	}
}

func TestSeasonalRegressionConstantSeries(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = 42
	}
	s := dailySeries("P-4", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), vals)

	rows, err := NewSeasonalRegression().Forecast(context.Background(), s, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if math.Abs(r.Point-42) > 1 {
			t.Fatalf("row %d: expected forecast near 42, got %v", i, r.Point)
		}
	}
}
