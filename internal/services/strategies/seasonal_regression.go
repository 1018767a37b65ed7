package strategies

import (
	"context"
	"math"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

const (
	// harmonics per seasonal component
	weeklyHarmonics = 2
	yearlyHarmonics = 2

	regressionRidge = 1e-6
	zScore95        = 1.96
)

// SeasonalRegression fits linear trend plus Fourier seasonal components by
// least squares. It naturally produces a point estimate and an uncertainty
// band from the residual spread.
type SeasonalRegression struct{}

func NewSeasonalRegression() *SeasonalRegression { return &SeasonalRegression{} }

func (*SeasonalRegression) Name() string { return "seasonal-regression" }

func (m *SeasonalRegression) Forecast(_ context.Context, s models.DemandSeries, horizon int) ([]models.ForecastRow, error) {
	if horizon <= 0 || s.Len() < MinSeriesLen {
		return nil, nil
	}

	y := s.Values()
	n := len(y)
	design := newSeasonalDesign(s.Granularity, n)

	x := mat.NewDense(n, design.width(), nil)
	for t := 0; t < n; t++ {
		x.SetRow(t, design.row(t))
	}

	beta, err := solveRidge(x, y, regressionRidge)
	if err != nil {
		// Singular or unstable design; treat as an empty result, never as a
		// run-level failure.
		return nil, nil
	}

	fitted := make([]float64, n)
	for t := 0; t < n; t++ {
		fitted[t] = dot(design.row(t), beta)
	}
	sigma := residualStddev(fitted, y, design.width())

	periods := futurePeriods(s, horizon)
	point := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		v := dot(design.row(n+i), beta)
		point[i] = v
		lower[i] = v - zScore95*sigma
		upper[i] = v + zScore95*sigma
	}
	if !finite(point) {
		return nil, nil
	}

	return buildRows(s, m.Name(), periods, point, lower, upper), nil
}

// seasonalDesign builds regression feature rows indexed by period position,
// so future rows extend the same basis the fit used.
type seasonalDesign struct {
	n            int
	weeklyPeriod float64 // 0 disables the component
	yearlyPeriod float64
	trendScale   float64
}

func newSeasonalDesign(g models.Granularity, n int) *seasonalDesign {
	d := &seasonalDesign{n: n, trendScale: float64(n)}
	if g == models.GranularityDaily {
		d.weeklyPeriod = 7
		if n >= 365 {
			d.yearlyPeriod = 365.25
		}
	} else if n >= 52 {
		d.yearlyPeriod = 52
	}
	return d
}

func (d *seasonalDesign) width() int {
	w := 2 // intercept + trend
	if d.weeklyPeriod > 0 {
		w += 2 * weeklyHarmonics
	}
	if d.yearlyPeriod > 0 {
		w += 2 * yearlyHarmonics
	}
	return w
}

func (d *seasonalDesign) row(t int) []float64 {
	row := make([]float64, 0, d.width())
	row = append(row, 1, float64(t)/d.trendScale)
	if d.weeklyPeriod > 0 {
		row = appendFourier(row, t, d.weeklyPeriod, weeklyHarmonics)
	}
	if d.yearlyPeriod > 0 {
		row = appendFourier(row, t, d.yearlyPeriod, yearlyHarmonics)
	}
	return row
}

func appendFourier(row []float64, t int, period float64, harmonics int) []float64 {
	for k := 1; k <= harmonics; k++ {
		angle := 2 * math.Pi * float64(k) * float64(t) / period
		row = append(row, math.Sin(angle), math.Cos(angle))
	}
	return row
}

var _ domsvc.Strategy = (*SeasonalRegression)(nil)
