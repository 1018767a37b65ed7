package service

import (
	"context"

	"DemandCast/internal/domain/models"
)

// Strategy is the common per-entity forecasting contract. Implementations
// return exactly horizon rows with periods continuing immediately after the
// last observed period, or an empty slice when the series is too short or the
// fit is numerically unusable. A Strategy never fails a run: numeric errors
// are absorbed and reported as an empty result.
type Strategy interface {
	Name() string
	Forecast(ctx context.Context, series models.DemandSeries, horizon int) ([]models.ForecastRow, error)
}
