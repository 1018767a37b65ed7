package models

import "time"

// Level is the aggregation granularity of a forecast entity.
type Level string

const (
	LevelProduct   Level = "product"
	LevelWarehouse Level = "warehouse"
	LevelRegion    Level = "region"
)

// Valid reports whether the level is one of the known aggregation levels.
func (l Level) Valid() bool {
	switch l {
	case LevelProduct, LevelWarehouse, LevelRegion:
		return true
	}
	return false
}

// Granularity is the time-bucket size of a demand series.
type Granularity string

const (
	GranularityDaily  Granularity = "daily"
	GranularityWeekly Granularity = "weekly"
)

// SeasonalPeriod returns the seasonal cycle length in periods.
func (g Granularity) SeasonalPeriod() int {
	if g == GranularityWeekly {
		return 52
	}
	return 7
}

// Entity identifies one forecast subject at a given level.
type Entity struct {
	Level Level  `json:"level"`
	ID    string `json:"id"`
}

// Key returns a stable cross-level entity key, e.g. "product__P-001".
func (e Entity) Key() string {
	return string(e.Level) + "__" + e.ID
}

// SeriesPoint is one period of observed demand.
type SeriesPoint struct {
	Period   time.Time `json:"period"`
	Quantity float64   `json:"quantity"`
}

// DemandSeries is a gap-free, chronologically ordered demand history for one
// entity: exactly one point per period between the first and last observed
// period, unobserved periods zero-filled.
type DemandSeries struct {
	Entity      Entity        `json:"entity"`
	Granularity Granularity   `json:"granularity"`
	Points      []SeriesPoint `json:"points"`
}

// Len returns the number of periods in the series.
func (s DemandSeries) Len() int { return len(s.Points) }

// Values returns the quantities in period order.
func (s DemandSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// LastPeriod returns the start of the most recent observed period. The
// boolean is false for an empty series.
func (s DemandSeries) LastPeriod() (time.Time, bool) {
	if len(s.Points) == 0 {
		return time.Time{}, false
	}
	return s.Points[len(s.Points)-1].Period, true
}

// ForecastRow is one persisted forecast estimate for (entity, period, run).
// Invariant: Lower <= Point <= Upper once bounds are filled.
type ForecastRow struct {
	Period      time.Time   `json:"period"`
	Point       float64     `json:"point_estimate"`
	Lower       float64     `json:"lower_bound"`
	Upper       float64     `json:"upper_bound"`
	HasBounds   bool        `json:"-"`
	Granularity Granularity `json:"granularity"`
	Model       string      `json:"model_name"`
	Level       Level       `json:"level"`
	EntityID    string      `json:"entity_id"`
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// RunParams configures one orchestrator run.
type RunParams struct {
	Levels      []Level
	Model       string
	Granularity Granularity
	Horizon     int
	Parallel    bool
	RunID       string
	Overwrite   bool
	Reconcile   bool
	SampleLimit int
}

// RunSummary aggregates the outcome of a run, including entities skipped for
// insufficient history or model fit failures.
type RunSummary struct {
	RunID         string        `json:"run_id"`
	Model         string        `json:"model"`
	Granularity   Granularity   `json:"granularity"`
	Horizon       int           `json:"horizon"`
	Levels        []Level       `json:"levels"`
	Attempted     int           `json:"entities_attempted"`
	Skipped       int           `json:"entities_skipped"`
	Rows          int           `json:"rows"`
	Reconciled    bool          `json:"reconciled"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Duration      time.Duration `json:"-"`
	DurationMilli int64         `json:"duration_ms"`
}
