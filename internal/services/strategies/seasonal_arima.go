package strategies

import (
	"context"
	"math"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

const arimaRidge = 1e-4

// SeasonalARIMA is a fixed-order autoregressive model on the once-differenced
// series, with a seasonal lag whose period follows the granularity (7 for
// daily, 52 for weekly). The interval comes from the analytic forecast
// variance via psi weights. Any numerical failure is absorbed into an empty
// result so one entity's instability never propagates.
type SeasonalARIMA struct{}

func NewSeasonalARIMA() *SeasonalARIMA { return &SeasonalARIMA{} }

func (*SeasonalARIMA) Name() string { return "seasonal-arima" }

func (m *SeasonalARIMA) Forecast(_ context.Context, s models.DemandSeries, horizon int) ([]models.ForecastRow, error) {
	if horizon <= 0 || s.Len() < MinSeriesLen {
		return nil, nil
	}

	y := s.Values()
	diffs := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		diffs[i-1] = y[i] - y[i-1]
	}

	sp := s.Granularity.SeasonalPeriod()
	// The seasonal lag needs enough differenced history to contribute rows;
	// otherwise fall back to the non-seasonal AR(1) form.
	useSeasonal := len(diffs) >= sp+4

	maxLag := 1
	width := 2 // intercept + lag 1
	if useSeasonal {
		maxLag = sp
		width = 3
	}

	nRows := len(diffs) - maxLag
	if nRows < width+2 {
		return nil, nil
	}

	x := mat.NewDense(nRows, width, nil)
	target := make([]float64, nRows)
	for i := 0; i < nRows; i++ {
		t := i + maxLag
		target[i] = diffs[t]
		x.Set(i, 0, 1)
		x.Set(i, 1, diffs[t-1])
		if useSeasonal {
			x.Set(i, 2, diffs[t-sp])
		}
	}

	beta, err := solveRidge(x, target, arimaRidge)
	if err != nil {
		return nil, nil
	}
	c, phi := beta[0], beta[1]
	var phiS float64
	if useSeasonal {
		phiS = beta[2]
	}

	fitted := make([]float64, nRows)
	for i := 0; i < nRows; i++ {
		t := i + maxLag
		fitted[i] = c + phi*diffs[t-1]
		if useSeasonal {
			fitted[i] += phiS * diffs[t-sp]
		}
	}
	sigma := residualStddev(fitted, target, width)

	// Recursive forecast of differences, then integrate back to levels.
	ext := append([]float64(nil), diffs...)
	levels := make([]float64, horizon)
	last := y[len(y)-1]
	for h := 0; h < horizon; h++ {
		d := c + phi*ext[len(ext)-1]
		if useSeasonal {
			d += phiS * ext[len(ext)-sp]
		}
		ext = append(ext, d)
		last += d
		levels[h] = last
	}
	if !finite(levels) {
		return nil, nil
	}

	// Forecast error variance of the integrated process at horizon h is
	// sigma^2 * sum_{j<h} (cumulative psi_j)^2.
	psi := make([]float64, horizon)
	cum := make([]float64, horizon)
	var varSum float64
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for j := 0; j < horizon; j++ {
		if j == 0 {
			psi[j] = 1
		} else {
			psi[j] = phi * psi[j-1]
			if useSeasonal && j >= sp {
				psi[j] += phiS * psi[j-sp]
			}
		}
		if j == 0 {
			cum[j] = psi[j]
		} else {
			cum[j] = cum[j-1] + psi[j]
		}
		varSum += cum[j] * cum[j]
		half := zScore95 * sigma * math.Sqrt(varSum)
		lower[j] = levels[j] - half
		upper[j] = levels[j] + half
	}

	periods := futurePeriods(s, horizon)
	return buildRows(s, m.Name(), periods, levels, lower, upper), nil
}

var _ domsvc.Strategy = (*SeasonalARIMA)(nil)
