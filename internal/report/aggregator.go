package report

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"chargingcosts/internal/models"
)

// FilterAll selects every charger in the directory.
const FilterAll = "all"

// priceLookback shifts a sample timestamp back into the interval it reports.
// A sample stamped at a minute boundary carries the energy charged during the
// interval ending at that boundary, so the applicable tariff is the one in
// effect just before it.
const priceLookback = time.Minute

// HistoryFetcher retrieves a charger's energy samples and session count.
type HistoryFetcher interface {
	FetchEnergyHistory(ctx context.Context, chargerID string, from, to time.Time, pageSize int) ([]models.EnergySample, int, error)
}

// PriceSource resolves the spot price for the hour containing an instant.
type PriceSource interface {
	GetPrice(ctx context.Context, t time.Time) (float64, error)
}

// Aggregator drives the per-charger cost computation.
type Aggregator struct {
	history HistoryFetcher
	prices  PriceSource
	logger  *zap.Logger
}

// NewAggregator builds the aggregator.
func NewAggregator(history HistoryFetcher, prices PriceSource, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		history: history,
		prices:  prices,
		logger:  logger,
	}
}

// ComputeReport produces one CostRow per charger matching filter, in the
// filtered list's order. A filter that matches nothing yields an empty slice
// and no error so the caller can render an explicit empty-result message
// without a single history fetch having happened.
//
// A price lookup failure abandons only the affected charger's accumulation:
// its row is still emitted with the totals gathered so far plus a warning,
// and the remaining chargers are processed normally. History fetch failures
// abort the whole report.
func (a *Aggregator) ComputeReport(ctx context.Context, chargers []models.Charger, from, to time.Time, pageSize int, filter string) ([]models.CostRow, error) {
	selected := lo.Filter(chargers, func(c models.Charger, _ int) bool {
		return filter == FilterAll || c.Name == filter
	})
	if len(selected) == 0 {
		return []models.CostRow{}, nil
	}

	rows := make([]models.CostRow, 0, len(selected))
	for _, charger := range selected {
		row, err := a.chargerRow(ctx, charger, from, to, pageSize)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (a *Aggregator) chargerRow(ctx context.Context, charger models.Charger, from, to time.Time, pageSize int) (models.CostRow, error) {
	samples, chargesCount, err := a.history.FetchEnergyHistory(ctx, charger.ID, from, to, pageSize)
	if err != nil {
		return models.CostRow{}, err
	}

	row := models.CostRow{
		ChargerName:  charger.Name,
		ChargesCount: chargesCount,
	}

	for _, sample := range samples {
		if sample.Energy == 0 {
			// Zero deltas bracket every session; pricing them would hit
			// hours that may carry no published price.
			continue
		}

		price, err := a.prices.GetPrice(ctx, sample.Timestamp.Add(-priceLookback))
		if err != nil {
			a.logger.Warn("price lookup failed, abandoning charger totals",
				zap.String("charger", charger.Name),
				zap.Time("sample", sample.Timestamp),
				zap.Error(err),
			)
			row.Warning = err.Error()
			break
		}

		row.TotalEnergy += sample.Energy
		row.TotalCost += sample.Energy * price
	}

	if row.TotalEnergy > 0 {
		row.AveragePrice = row.TotalCost / row.TotalEnergy
	}

	a.logger.Info("charger totals computed",
		zap.String("charger", charger.Name),
		zap.Int("charges", row.ChargesCount),
		zap.Float64("energy_kwh", row.TotalEnergy),
		zap.Float64("cost_sek", row.TotalCost),
	)
	return row, nil
}
