package strategies

import (
	"math"
	"time"

	"DemandCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// MinSeriesLen is the minimum number of observed periods required before any
// backend attempts a fit. Shorter series yield statistically meaningless
// seasonal and trend estimates and are skipped without error.
const MinSeriesLen = 14

// futurePeriods returns horizon period starts continuing immediately after
// the last observed period.
func futurePeriods(s models.DemandSeries, horizon int) []time.Time {
	last, ok := s.LastPeriod()
	if !ok {
		return nil
	}
	out := make([]time.Time, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = s.Granularity.AddPeriods(last, i+1)
	}
	return out
}

// buildRows assembles forecast rows for one entity. lower/upper may be nil
// when the backend produces no native uncertainty band; the orchestrator
// applies the fallback interval to such rows.
func buildRows(s models.DemandSeries, modelName string, periods []time.Time, point, lower, upper []float64) []models.ForecastRow {
	rows := make([]models.ForecastRow, len(periods))
	for i := range periods {
		r := models.ForecastRow{
			Period:      periods[i],
			Point:       point[i],
			Granularity: s.Granularity,
			Model:       modelName,
			Level:       s.Entity.Level,
			EntityID:    s.Entity.ID,
		}
		if lower != nil && upper != nil {
			lo, hi := lower[i], upper[i]
			if lo > r.Point {
				lo = r.Point
			}
			if hi < r.Point {
				hi = r.Point
			}
			r.Lower, r.Upper, r.HasBounds = lo, hi, true
		}
		rows[i] = r
	}
	return rows
}

// solveRidge solves the least-squares system min ||Xb - y|| via the normal
// equations with a small ridge term, which keeps collinear designs (constant
// demand, aliased seasonal columns) solvable instead of blowing up the fit.
func solveRidge(x *mat.Dense, y []float64, lambda float64) ([]float64, error) {
	_, p := x.Dims()

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < p; i++ {
		xtx.Set(i, i, xtx.At(i, i)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(len(y), y))

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, err
	}

	out := make([]float64, p)
	for i := 0; i < p; i++ {
		v := beta.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errNumericallyUnstable
		}
		out[i] = v
	}
	return out, nil
}

var errNumericallyUnstable = errNumeric("numerically unstable fit")

type errNumeric string

func (e errNumeric) Error() string { return string(e) }

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// residualStddev computes the standard deviation of fit residuals with dof
// degrees of freedom consumed by the model.
func residualStddev(yHat, y []float64, dof int) float64 {
	n := len(y)
	if n <= dof {
		return 0
	}
	var ssr float64
	for i := range y {
		d := y[i] - yHat[i]
		ssr += d * d
	}
	return math.Sqrt(ssr / float64(n-dof))
}

func finite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
