package usecase

import (
	"context"
	"sort"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/strategies"
	"DemandCast/pkg/logger"
)

// PanelModelName is the model identifier for the pooled gradient boosted
// backend.
const PanelModelName = "panel-gbm"

// maxLag is the deepest lag feature; series need maxLag observed periods
// before contributing a single training row.
const maxLag = 14

// PanelModel trains one gradient boosted tree ensemble across all entities of
// a level at once, so sparse entities borrow strength from the pool. Features
// per row: entity code, calendar position (day of week, month, ISO week) and
// demand lags 1, 7 and 14 plus a trailing 7-period mean.
type PanelModel struct {
	cfg strategies.GBTConfig
	l   *logger.Logger
}

func NewPanelModel(l *logger.Logger) *PanelModel {
	return &PanelModel{cfg: strategies.DefaultGBTConfig(), l: l}
}

func (*PanelModel) Name() string { return PanelModelName }

// Forecast trains on the pooled series and rolls each entity forward
// autoregressively, feeding predictions back as lag inputs. Predictions are
// clamped at zero; demand cannot be negative. Series shorter than the model
// minimum are skipped and counted.
func (p *PanelModel) Forecast(ctx context.Context, pool []models.DemandSeries, horizon int) ([]models.ForecastRow, int, error) {
	if horizon <= 0 {
		return nil, 0, nil
	}

	usable := make([]models.DemandSeries, 0, len(pool))
	skipped := 0
	for _, s := range pool {
		if s.Len() < strategies.MinSeriesLen {
			skipped++
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) == 0 {
		return nil, skipped, nil
	}

	codes := entityCodes(usable)

	var features [][]float64
	var target []float64
	for _, s := range usable {
		code := codes[s.Entity.Key()]
		vals := s.Values()
		for t := maxLag; t < len(vals); t++ {
			features = append(features, panelRow(code, s.Points[t].Period, vals, t))
			target = append(target, vals[t])
		}
	}
	if len(features) == 0 {
		return nil, skipped, nil
	}

	model, err := strategies.TrainGBT(features, target, p.cfg)
	if err != nil {
		return nil, skipped, err
	}
	p.l.Info("panel model trained",
		logger.Int("entities", len(usable)),
		logger.Int("training_rows", len(features)),
	)

	var rows []models.ForecastRow
	for _, s := range usable {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}
		rows = append(rows, p.rollout(model, codes[s.Entity.Key()], s, horizon)...)
	}
	return rows, skipped, nil
}

func (p *PanelModel) rollout(model *strategies.GBTModel, code float64, s models.DemandSeries, horizon int) []models.ForecastRow {
	vals := append([]float64(nil), s.Values()...)
	last, _ := s.LastPeriod()

	rows := make([]models.ForecastRow, 0, horizon)
	for h := 1; h <= horizon; h++ {
		period := s.Granularity.AddPeriods(last, h)
		t := len(vals)
		pred := model.Predict(panelRow(code, period, vals, t))
		if pred < 0 {
			pred = 0
		}
		vals = append(vals, pred)
		rows = append(rows, models.ForecastRow{
			Period:      period,
			Point:       pred,
			Granularity: s.Granularity,
			Model:       PanelModelName,
			Level:       s.Entity.Level,
			EntityID:    s.Entity.ID,
		})
	}
	return rows
}

// panelRow builds the feature vector for position t, where vals[:t] is the
// demand history preceding the target period.
func panelRow(code float64, period time.Time, vals []float64, t int) []float64 {
	_, week := period.ISOWeek()
	var roll float64
	for i := t - 7; i < t; i++ {
		roll += vals[i]
	}
	return []float64{
		code,
		float64(period.Weekday()),
		float64(period.Month()),
		float64(week),
		vals[t-1],
		vals[t-7],
		vals[t-14],
		roll / 7,
	}
}

// entityCodes assigns each entity a stable numeric code ordered by key, so
// retraining on the same pool yields the same encoding.
func entityCodes(pool []models.DemandSeries) map[string]float64 {
	keys := make([]string, 0, len(pool))
	for _, s := range pool {
		keys = append(keys, s.Entity.Key())
	}
	sort.Strings(keys)
	codes := make(map[string]float64, len(keys))
	for i, k := range keys {
		codes[k] = float64(i)
	}
	return codes
}
