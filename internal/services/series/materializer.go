package series

import (
	"context"
	"sort"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/pkg/cache"
)

// Materialize turns raw aggregated demand points into a gap-free series: one
// point per period from the first to the last observed period, unobserved
// periods zero-filled. Models downstream assume gap-free input; gaps bias
// seasonal estimation and break lag-feature construction.
func Materialize(entity models.Entity, granularity models.Granularity, raw []models.SeriesPoint) models.DemandSeries {
	out := models.DemandSeries{Entity: entity, Granularity: granularity}
	if len(raw) == 0 {
		return out
	}

	sorted := make([]models.SeriesPoint, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period.Before(sorted[j].Period) })

	// collapse duplicate periods by summing
	byPeriod := make(map[time.Time]float64, len(sorted))
	for _, p := range sorted {
		period := granularity.TruncatePeriod(p.Period)
		byPeriod[period] += p.Quantity
	}

	first := granularity.TruncatePeriod(sorted[0].Period)
	last := granularity.TruncatePeriod(sorted[len(sorted)-1].Period)
	n := granularity.PeriodsBetween(first, last)

	out.Points = make([]models.SeriesPoint, 0, n)
	for period := first; !period.After(last); period = granularity.NextPeriod(period) {
		out.Points = append(out.Points, models.SeriesPoint{
			Period:   period,
			Quantity: byPeriod[period],
		})
	}
	return out
}

// Provider fetches and materializes demand series, with a short-lived cache
// so the panel path does not hit the store twice per entity (once to build
// the training table, once to seed the autoregressive rollout).
type Provider struct {
	reader domrepo.HistoryReader
	cache  cache.Service
	ttl    time.Duration
}

// NewProvider creates a series provider. cache may be nil to disable reuse.
func NewProvider(reader domrepo.HistoryReader, c cache.Service) *Provider {
	return &Provider{reader: reader, cache: c, ttl: 15 * time.Minute}
}

// Demand returns the materialized series for one entity. Entities with no
// observed orders yield an empty series, not an error.
func (p *Provider) Demand(ctx context.Context, entity models.Entity, granularity models.Granularity) (models.DemandSeries, error) {
	key := cache.Key("series", string(granularity), entity.Key())
	if p.cache != nil {
		var cached models.DemandSeries
		if err := p.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	raw, err := p.reader.FetchSeries(ctx, entity, granularity)
	if err != nil {
		return models.DemandSeries{}, err
	}
	s := Materialize(entity, granularity, raw)

	if p.cache != nil {
		_ = p.cache.Set(ctx, key, s, p.ttl)
	}
	return s, nil
}

// Invalidate drops cached series for the given entities, called at the start
// of a run so every run recomputes history fresh.
func (p *Provider) Invalidate(ctx context.Context, granularity models.Granularity, entities []models.Entity) {
	if p.cache == nil {
		return
	}
	keys := make([]string, 0, len(entities))
	for _, e := range entities {
		keys = append(keys, cache.Key("series", string(granularity), e.Key()))
	}
	if len(keys) > 0 {
		_ = p.cache.Delete(ctx, keys...)
	}
}
