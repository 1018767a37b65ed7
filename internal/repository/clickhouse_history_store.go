package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// ClickHouseHistoryStore reads validated order history from the silver layer.
// It is read-only and safe for concurrent use by forecast workers.
type ClickHouseHistoryStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewClickHouseHistoryStore creates a history reader over the given silver
// database (tables supply_orders and warehouses).
func NewClickHouseHistoryStore(ch *pkgch.Client, database string, l *applogger.Logger) *ClickHouseHistoryStore {
	return &ClickHouseHistoryStore{db: ch.DB(), database: database, l: l}
}

func (s *ClickHouseHistoryStore) ordersTable() string     { return s.database + ".supply_orders" }
func (s *ClickHouseHistoryStore) warehousesTable() string { return s.database + ".warehouses" }

// DistinctEntities enumerates entity identifiers observed at a level. An
// empty result means "nothing to forecast" and is not an error.
func (s *ClickHouseHistoryStore) DistinctEntities(ctx context.Context, level models.Level, limit int) ([]string, error) {
	var q string
	switch level {
	case models.LevelProduct:
		q = fmt.Sprintf("SELECT DISTINCT product_id FROM %s WHERE product_id != '' ORDER BY product_id", s.ordersTable())
	case models.LevelWarehouse:
		q = fmt.Sprintf("SELECT DISTINCT warehouse_id FROM %s WHERE warehouse_id != '' ORDER BY warehouse_id", s.ordersTable())
	case models.LevelRegion:
		q = fmt.Sprintf("SELECT DISTINCT region FROM %s WHERE region != '' ORDER BY region", s.warehousesTable())
	default:
		return nil, fmt.Errorf("unknown level: %s", level)
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("distinct entities (%s): %w", level, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("entity catalog resolved",
			applogger.String("level", string(level)),
			applogger.Int("entities", len(out)),
		)
	}
	return out, nil
}

// FetchSeries aggregates observed quantities into one raw point per period.
// Periods with no orders are absent from the result; the series materializer
// fills them with zero demand.
func (s *ClickHouseHistoryStore) FetchSeries(ctx context.Context, entity models.Entity, granularity models.Granularity) ([]models.SeriesPoint, error) {
	bucket := "toDate(order_date)"
	if granularity == models.GranularityWeekly {
		bucket = "toMonday(order_date)"
	}

	var q string
	switch entity.Level {
	case models.LevelProduct:
		q = fmt.Sprintf(`
            SELECT %s AS period, sum(quantity) AS qty
            FROM %s
            WHERE product_id = ?
            GROUP BY period
            ORDER BY period
        `, bucket, s.ordersTable())
	case models.LevelWarehouse:
		q = fmt.Sprintf(`
            SELECT %s AS period, sum(quantity) AS qty
            FROM %s
            WHERE warehouse_id = ?
            GROUP BY period
            ORDER BY period
        `, bucket, s.ordersTable())
	case models.LevelRegion:
		q = fmt.Sprintf(`
            SELECT %s AS period, sum(so.quantity) AS qty
            FROM %s so
            INNER JOIN %s w ON so.warehouse_id = w.warehouse_id
            WHERE w.region = ?
            GROUP BY period
            ORDER BY period
        `, bucket, s.ordersTable(), s.warehousesTable())
	default:
		return nil, fmt.Errorf("unknown level: %s", entity.Level)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", entity.Key(), err)
	}
	defer rows.Close()

	var out []models.SeriesPoint
	for rows.Next() {
		var p models.SeriesPoint
		if err := rows.Scan(&p.Period, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan series point: %w", err)
		}
		p.Period = granularity.TruncatePeriod(p.Period)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("series fetched",
			applogger.String("entity", entity.Key()),
			applogger.String("granularity", string(granularity)),
			applogger.Int("periods", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// WarehouseRegions returns the warehouse -> region dimension mapping used for
// bottom-up reconciliation.
func (s *ClickHouseHistoryStore) WarehouseRegions(ctx context.Context) (map[string]string, error) {
	q := fmt.Sprintf("SELECT warehouse_id, region FROM %s WHERE warehouse_id != ''", s.warehousesTable())
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("warehouse regions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var wh, region string
		if err := rows.Scan(&wh, &region); err != nil {
			return nil, fmt.Errorf("scan warehouse region: %w", err)
		}
		out[wh] = region
	}
	return out, rows.Err()
}

func (s *ClickHouseHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ domrepo.HistoryReader = (*ClickHouseHistoryStore)(nil)
