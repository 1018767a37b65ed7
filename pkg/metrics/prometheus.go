package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	rowsTotal    *prometheus.CounterVec
	skippedTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_forecast_rows_total",
				Help: "Forecast rows produced, by model and aggregation level",
			},
			[]string{"model", "level"},
		),
		skippedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_entities_skipped_total",
				Help: "Entities skipped during a run, by level and reason",
			},
			[]string{"level", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_errors_total",
				Help: "Total errors encountered, by kind",
			},
			[]string{"kind"},
		),
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demandcast_run_duration_seconds",
				Help:    "End-to-end forecast run duration",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"model"},
		),
	}
}

// RecordRows counts produced forecast rows.
func (r *Recorder) RecordRows(model, level string, n int) {
	r.rowsTotal.WithLabelValues(model, level).Add(float64(n))
}

// RecordEntitySkipped counts a skipped entity with its reason.
func (r *Recorder) RecordEntitySkipped(level, reason string) {
	r.skippedTotal.WithLabelValues(level, reason).Inc()
}

// RecordError counts an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRunDuration observes a run's duration in seconds.
func (r *Recorder) RecordRunDuration(model string, seconds float64) {
	r.runDuration.WithLabelValues(model).Observe(seconds)
}
