package strategies

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSeasonalARIMAContinuesLinearTrend(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = float64(10 + i)
	}
	s := dailySeries("P-10", start, vals)

	rows, err := NewSeasonalARIMA().Forecast(context.Background(), s, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i, r := range rows {
		wantPeriod := start.AddDate(0, 0, 20+i)
		if !r.Period.Equal(wantPeriod) {
			t.Fatalf("row %d: expected period %v, got %v", i, wantPeriod, r.Period)
		}
		want := float64(30 + i)
		if math.Abs(r.Point-want) > 0.5 {
			t.Fatalf("row %d: expected forecast near %v, got %v", i, want, r.Point)
		}
		if !r.HasBounds {
			t.Fatalf("row %d: expected native bounds", i)
		}
		if r.Lower > r.Point || r.Point > r.Upper {
			t.Fatalf("row %d: bounds out of order: %v <= %v <= %v", i, r.Lower, r.Point, r.Upper)
		}
	}
}

func TestSeasonalARIMAShortSeriesIsEmpty(t *testing.T) {
	s := dailySeries("P-11", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), make([]float64, MinSeriesLen-1))
	rows, err := NewSeasonalARIMA().Forecast(context.Background(), s, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(rows))
	}
}

func TestSeasonalARIMAIntervalsWiden(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	vals := make([]float64, 40)
	for i := range vals {
		vals[i] = 50 + 5*math.Sin(2*math.Pi*float64(i)/7) + float64(i%3)
	}
	s := dailySeries("P-12", start, vals)

	rows, err := NewSeasonalARIMA().Forecast(context.Background(), s, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	prev := rows[0].Upper - rows[0].Lower
	if prev <= 0 {
		t.Fatalf("expected positive first interval width, got %v", prev)
	}
	last := rows[len(rows)-1].Upper - rows[len(rows)-1].Lower
	if last < prev {
		t.Fatalf("expected interval width to grow with horizon: first %v, last %v", prev, last)
	}
}

func TestSeasonalARIMAZeroHorizon(t *testing.T) {
	s := dailySeries("P-13", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), weeklyPattern(30))
	rows, err := NewSeasonalARIMA().Forecast(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for zero horizon, got %d", len(rows))
	}
}
