package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargingcosts/internal/models"
)

type chargerHistory struct {
	samples []models.EnergySample
	count   int
}

type fakeHistory struct {
	calls      int
	perCharger map[string]chargerHistory
	err        error
}

func (f *fakeHistory) FetchEnergyHistory(_ context.Context, chargerID string, _, _ time.Time, _ int) ([]models.EnergySample, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	h := f.perCharger[chargerID]
	return h.samples, h.count, nil
}

type fakePrices struct {
	calls   []time.Time
	byHour  map[int]float64
	failing map[int]error
}

func (f *fakePrices) GetPrice(_ context.Context, t time.Time) (float64, error) {
	f.calls = append(f.calls, t)
	if err, ok := f.failing[t.Hour()]; ok {
		return 0, err
	}
	price, ok := f.byHour[t.Hour()]
	if !ok {
		return 0, fmt.Errorf("no price for hour %d", t.Hour())
	}
	return price, nil
}

func sampleAt(hour, minute int, energy float64) models.EnergySample {
	return models.EnergySample{
		Timestamp: time.Date(2025, time.June, 7, hour, minute, 0, 0, time.UTC),
		Energy:    energy,
	}
}

var window = struct{ from, to time.Time }{
	from: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	to:   time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC),
}

func TestComputeReportPricesWithLookback(t *testing.T) {
	history := &fakeHistory{perCharger: map[string]chargerHistory{
		"ch-1": {
			samples: []models.EnergySample{
				sampleAt(10, 16, 0.5),
				sampleAt(10, 31, 0.3),
			},
			count: 1,
		},
	}}
	prices := &fakePrices{byHour: map[int]float64{10: 1.50}}
	agg := NewAggregator(history, prices, zap.NewNop())

	rows, err := agg.ComputeReport(context.Background(), []models.Charger{{ID: "ch-1", Name: "Garage"}}, window.from, window.to, 50, FilterAll)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Garage", row.ChargerName)
	assert.Equal(t, 1, row.ChargesCount)
	assert.InDelta(t, 0.8, row.TotalEnergy, 1e-9)
	assert.InDelta(t, 1.20, row.TotalCost, 1e-9)
	assert.InDelta(t, 1.50, row.AveragePrice, 1e-9)
	assert.Empty(t, row.Warning)

	// Both lookups land one minute before the sample boundary, inside hour 10.
	require.Len(t, prices.calls, 2)
	assert.Equal(t, time.Date(2025, time.June, 7, 10, 15, 0, 0, time.UTC), prices.calls[0])
	assert.Equal(t, time.Date(2025, time.June, 7, 10, 30, 0, 0, time.UTC), prices.calls[1])
}

func TestComputeReportSkipsZeroEnergySamples(t *testing.T) {
	history := &fakeHistory{perCharger: map[string]chargerHistory{
		"ch-1": {
			samples: []models.EnergySample{
				sampleAt(9, 21, 0),
				sampleAt(9, 30, 0.509),
				sampleAt(16, 47, 0),
			},
			count: 1,
		},
	}}
	prices := &fakePrices{byHour: map[int]float64{9: 1.0}}
	agg := NewAggregator(history, prices, zap.NewNop())

	rows, err := agg.ComputeReport(context.Background(), []models.Charger{{ID: "ch-1", Name: "Garage"}}, window.from, window.to, 50, FilterAll)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Len(t, prices.calls, 1, "zero-energy samples must not trigger price lookups")
	assert.InDelta(t, 0.509, rows[0].TotalEnergy, 1e-9)
	assert.InDelta(t, 0.509, rows[0].TotalCost, 1e-9)
}

func TestComputeReportAllZeroSamplesAverageGuard(t *testing.T) {
	history := &fakeHistory{perCharger: map[string]chargerHistory{
		"ch-1": {samples: []models.EnergySample{sampleAt(9, 21, 0)}, count: 1},
	}}
	prices := &fakePrices{}
	agg := NewAggregator(history, prices, zap.NewNop())

	rows, err := agg.ComputeReport(context.Background(), []models.Charger{{ID: "ch-1", Name: "Garage"}}, window.from, window.to, 50, FilterAll)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Empty(t, prices.calls)
	assert.Zero(t, rows[0].TotalEnergy)
	assert.Zero(t, rows[0].TotalCost)
	assert.Zero(t, rows[0].AveragePrice)
}

func TestComputeReportEmptyFilterOutcome(t *testing.T) {
	history := &fakeHistory{}
	agg := NewAggregator(history, &fakePrices{}, zap.NewNop())
	chargers := []models.Charger{
		{ID: "a", Name: "Charger 1"},
		{ID: "b", Name: "Charger 2"},
		{ID: "c", Name: "Charger 3"},
	}

	rows, err := agg.ComputeReport(context.Background(), chargers, window.from, window.to, 50, "NonexistentCharger")
	require.NoError(t, err, "an unmatched filter is an empty outcome, not an error")
	assert.Empty(t, rows)
	assert.Zero(t, history.calls, "no history fetch may happen for an unmatched filter")
}

func TestComputeReportExactNameFilter(t *testing.T) {
	history := &fakeHistory{perCharger: map[string]chargerHistory{
		"b": {samples: []models.EnergySample{sampleAt(10, 16, 1.0)}, count: 2},
	}}
	prices := &fakePrices{byHour: map[int]float64{10: 2.0}}
	agg := NewAggregator(history, prices, zap.NewNop())
	chargers := []models.Charger{
		{ID: "a", Name: "Charger 1"},
		{ID: "b", Name: "Charger 2"},
	}

	rows, err := agg.ComputeReport(context.Background(), chargers, window.from, window.to, 50, "Charger 2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Charger 2", rows[0].ChargerName)
	assert.Equal(t, 1, history.calls)
}

func TestComputeReportPriceFailureIsolatedPerCharger(t *testing.T) {
	history := &fakeHistory{perCharger: map[string]chargerHistory{
		"a": {
			samples: []models.EnergySample{
				sampleAt(10, 16, 0.4), // priced before the failure hits
				sampleAt(12, 16, 0.6),
			},
			count: 1,
		},
		"b": {samples: []models.EnergySample{sampleAt(10, 31, 1.0)}, count: 3},
	}}
	notFound := errors.New("spot: price not found: hour 12")
	prices := &fakePrices{
		byHour:  map[int]float64{10: 1.5},
		failing: map[int]error{12: notFound},
	}
	agg := NewAggregator(history, prices, zap.NewNop())
	chargers := []models.Charger{
		{ID: "a", Name: "Charger A"},
		{ID: "b", Name: "Charger B"},
	}

	rows, err := agg.ComputeReport(context.Background(), chargers, window.from, window.to, 50, FilterAll)
	require.NoError(t, err)
	require.Len(t, rows, 2, "the failing charger still gets a row")

	assert.Equal(t, "Charger A", rows[0].ChargerName)
	assert.Contains(t, rows[0].Warning, "price not found")
	assert.InDelta(t, 0.4, rows[0].TotalEnergy, 1e-9, "totals gathered before the failure are kept")

	assert.Equal(t, "Charger B", rows[1].ChargerName)
	assert.Empty(t, rows[1].Warning)
	assert.InDelta(t, 1.0, rows[1].TotalEnergy, 1e-9)
	assert.InDelta(t, 1.5, rows[1].TotalCost, 1e-9)
}

func TestComputeReportHistoryFailureAborts(t *testing.T) {
	history := &fakeHistory{err: errors.New("boom")}
	agg := NewAggregator(history, &fakePrices{}, zap.NewNop())

	_, err := agg.ComputeReport(context.Background(), []models.Charger{{ID: "a", Name: "A"}}, window.from, window.to, 50, FilterAll)
	require.Error(t, err)
}

func TestComputeReportDeterministic(t *testing.T) {
	history := &fakeHistory{perCharger: map[string]chargerHistory{
		"a": {samples: []models.EnergySample{sampleAt(10, 16, 0.5), sampleAt(11, 1, 0.25)}, count: 2},
		"b": {samples: []models.EnergySample{sampleAt(10, 31, 0.3)}, count: 1},
	}}
	prices := &fakePrices{byHour: map[int]float64{10: 1.5, 11: 2.0}}
	agg := NewAggregator(history, prices, zap.NewNop())
	chargers := []models.Charger{
		{ID: "a", Name: "Charger A"},
		{ID: "b", Name: "Charger B"},
	}

	first, err := agg.ComputeReport(context.Background(), chargers, window.from, window.to, 50, FilterAll)
	require.NoError(t, err)
	second, err := agg.ComputeReport(context.Background(), chargers, window.from, window.to, 50, FilterAll)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Charger A", first[0].ChargerName)
	assert.Equal(t, "Charger B", first[1].ChargerName)
}
