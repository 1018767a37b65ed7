package series

import (
	"context"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/cache"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestMaterializeFillsGaps(t *testing.T) {
	entity := models.Entity{Level: models.LevelProduct, ID: "P-1"}
	raw := []models.SeriesPoint{
		{Period: day(1), Quantity: 5},
		{Period: day(4), Quantity: 2},
		{Period: day(6), Quantity: 7},
	}

	s := Materialize(entity, models.GranularityDaily, raw)

	if s.Len() != 6 {
		t.Fatalf("expected 6 periods, got %d", s.Len())
	}
	want := []float64{5, 0, 0, 2, 0, 7}
	for i, p := range s.Points {
		if p.Quantity != want[i] {
			t.Fatalf("period %d: expected %v, got %v", i, want[i], p.Quantity)
		}
		if !p.Period.Equal(day(i + 1)) {
			t.Fatalf("period %d: expected %v, got %v", i, day(i+1), p.Period)
		}
	}
}

func TestMaterializeEmptyInput(t *testing.T) {
	entity := models.Entity{Level: models.LevelWarehouse, ID: "W-1"}
	s := Materialize(entity, models.GranularityDaily, nil)
	if s.Len() != 0 {
		t.Fatalf("expected empty series, got %d points", s.Len())
	}
}

func TestMaterializeUnsortedAndDuplicates(t *testing.T) {
	entity := models.Entity{Level: models.LevelProduct, ID: "P-2"}
	raw := []models.SeriesPoint{
		{Period: day(3), Quantity: 1},
		{Period: day(1), Quantity: 4},
		{Period: day(3), Quantity: 2},
	}

	s := Materialize(entity, models.GranularityDaily, raw)

	if s.Len() != 3 {
		t.Fatalf("expected 3 periods, got %d", s.Len())
	}
	if s.Points[0].Quantity != 4 || s.Points[2].Quantity != 3 {
		t.Fatalf("unexpected quantities %+v", s.Points)
	}
}

func TestMaterializeWeeklyBuckets(t *testing.T) {
	entity := models.Entity{Level: models.LevelRegion, ID: "north"}
	// Mondays three weeks apart with the middle week missing.
	raw := []models.SeriesPoint{
		{Period: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Quantity: 10},
		{Period: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Quantity: 20},
	}

	s := Materialize(entity, models.GranularityWeekly, raw)

	if s.Len() != 3 {
		t.Fatalf("expected 3 weeks, got %d", s.Len())
	}
	if s.Points[1].Quantity != 0 {
		t.Fatalf("expected zero-filled middle week, got %v", s.Points[1].Quantity)
	}
}

type fakeReader struct {
	calls int
	raw   []models.SeriesPoint
}

func (f *fakeReader) DistinctEntities(context.Context, models.Level, int) ([]string, error) {
	return nil, nil
}

func (f *fakeReader) FetchSeries(context.Context, models.Entity, models.Granularity) ([]models.SeriesPoint, error) {
	f.calls++
	return f.raw, nil
}

func (f *fakeReader) WarehouseRegions(context.Context) (map[string]string, error) {
	return nil, nil
}

func (f *fakeReader) Health(context.Context) error { return nil }

func TestProviderCachesSeries(t *testing.T) {
	reader := &fakeReader{raw: []models.SeriesPoint{{Period: day(1), Quantity: 3}}}
	p := NewProvider(reader, cache.NewMemoryCache())
	entity := models.Entity{Level: models.LevelProduct, ID: "P-1"}

	for i := 0; i < 2; i++ {
		s, err := p.Demand(context.Background(), entity, models.GranularityDaily)
		if err != nil {
			t.Fatalf("demand: %v", err)
		}
		if s.Len() != 1 || s.Points[0].Quantity != 3 {
			t.Fatalf("unexpected series %+v", s.Points)
		}
	}
	if reader.calls != 1 {
		t.Fatalf("expected 1 store fetch, got %d", reader.calls)
	}

	p.Invalidate(context.Background(), models.GranularityDaily, []models.Entity{entity})
	if _, err := p.Demand(context.Background(), entity, models.GranularityDaily); err != nil {
		t.Fatalf("demand after invalidate: %v", err)
	}
	if reader.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", reader.calls)
	}
}

func TestProviderReturnsEmptySeriesForUnknownEntity(t *testing.T) {
	p := NewProvider(&fakeReader{}, nil)
	s, err := p.Demand(context.Background(), models.Entity{Level: models.LevelProduct, ID: "ghost"}, models.GranularityDaily)
	if err != nil {
		t.Fatalf("demand: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty series, got %d points", s.Len())
	}
}
