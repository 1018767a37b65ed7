package usecase

import (
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/logger"
)

// Reconciler aligns forecasts across aggregation levels after all levels have
// been forecast independently. The warehouse to region correction is applied
// bottom-up from the warehouse dimension; product to warehouse stays
// unapplied because order history carries no product-warehouse membership,
// and that gap is logged per run rather than silently ignored.
type Reconciler struct {
	l *logger.Logger
}

func NewReconciler(l *logger.Logger) *Reconciler {
	return &Reconciler{l: l}
}

type regionPeriod struct {
	region string
	period time.Time
}

// Apply shifts each region forecast to the sum of its member warehouse
// forecasts for the same period, moving the interval along with the point so
// the band width carries over. Rows for other levels pass through untouched.
// Returns the number of region rows adjusted.
func (r *Reconciler) Apply(rows []models.ForecastRow, warehouseRegions map[string]string) int {
	if len(warehouseRegions) == 0 {
		r.l.Warn("reconciliation skipped: warehouse dimension has no region mapping")
		return 0
	}

	bottomUp := make(map[regionPeriod]float64)
	sawWarehouse := false
	for _, row := range rows {
		if row.Level != models.LevelWarehouse {
			continue
		}
		region, ok := warehouseRegions[row.EntityID]
		if !ok {
			continue
		}
		sawWarehouse = true
		bottomUp[regionPeriod{region, row.Period}] += row.Point
	}
	if !sawWarehouse {
		r.l.Warn("reconciliation skipped: no warehouse forecasts to aggregate")
		return 0
	}

	adjusted := 0
	for i := range rows {
		if rows[i].Level != models.LevelRegion {
			continue
		}
		total, ok := bottomUp[regionPeriod{rows[i].EntityID, rows[i].Period}]
		if !ok {
			continue
		}
		delta := total - rows[i].Point
		rows[i].Point = total
		if rows[i].HasBounds {
			rows[i].Lower += delta
			rows[i].Upper += delta
			if rows[i].Lower < 0 {
				rows[i].Lower = 0
			}
			if rows[i].Lower > rows[i].Point {
				rows[i].Lower = rows[i].Point
			}
			if rows[i].Upper < rows[i].Point {
				rows[i].Upper = rows[i].Point
			}
		}
		adjusted++
	}

	r.l.Info("reconciliation applied",
		logger.Int("region_rows_adjusted", adjusted),
	)
	r.l.Info("product to warehouse correction not applied: order history has no product-warehouse membership")
	return adjusted
}
