package models

// RunRequest is the HTTP body accepted by POST /api/runs.
type RunRequest struct {
	Levels      []string `json:"levels" default:"[\"product\"]" validate:"min=1,dive,oneof=product warehouse region"`
	Model       string   `json:"model" default:"seasonal-regression" validate:"oneof=seasonal-regression seasonal-arima panel-gbm"`
	Granularity string   `json:"granularity" default:"daily" validate:"oneof=daily weekly"`
	Horizon     int      `json:"horizon" default:"90" validate:"gt=0,lte=730"`
	Parallel    *bool    `json:"parallel,omitempty"`
	RunID       string   `json:"run_id,omitempty" validate:"omitempty,max=64"`
	Overwrite   *bool    `json:"overwrite,omitempty"`
	Reconcile   bool     `json:"reconcile"`
	SampleLimit int      `json:"sample_limit" validate:"gte=0"`
}

// ToParams converts the request into orchestrator parameters. Parallel and
// Overwrite default to true when omitted.
func (r *RunRequest) ToParams() RunParams {
	levels := make([]Level, 0, len(r.Levels))
	for _, l := range r.Levels {
		levels = append(levels, Level(l))
	}
	parallel := true
	if r.Parallel != nil {
		parallel = *r.Parallel
	}
	overwrite := true
	if r.Overwrite != nil {
		overwrite = *r.Overwrite
	}
	return RunParams{
		Levels:      levels,
		Model:       r.Model,
		Granularity: Granularity(r.Granularity),
		Horizon:     r.Horizon,
		Parallel:    parallel,
		RunID:       r.RunID,
		Overwrite:   overwrite,
		Reconcile:   r.Reconcile,
		SampleLimit: r.SampleLimit,
	}
}
