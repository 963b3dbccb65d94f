package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nday-analyzer/src/models"
)

func TestDetectSignals_ScenarioA(t *testing.T) {
	series := consecutiveSeries(t, "2024-03-01", 100, 98, 97, 99, 101, 95, 94, 96)

	signals := DetectSignals(series, 1.0)

	// 98 (-2%), 97 (-1.02%), 95 (-5.94%), 94 (-1.05%)
	require.Len(t, signals, 4)
	wantCloses := []float64{98, 97, 95, 94}
	wantDates := []string{"2024-03-02", "2024-03-03", "2024-03-06", "2024-03-07"}
	for i, s := range signals {
		assert.Equal(t, wantCloses[i], s.PriceAtSignal)
		assert.Equal(t, day(t, wantDates[i]), s.SignalDate)
		assert.LessOrEqual(t, s.PctChange, -1.0)
	}
	assert.InDelta(t, -2.0, signals[0].PctChange, 1e-9)
	assert.InDelta(t, -1.0526315789, signals[3].PctChange, 1e-9)
}

func TestDetectSignals_FirstDayNeverSignals(t *testing.T) {
	series := consecutiveSeries(t, "2024-03-01", 10)
	assert.Empty(t, DetectSignals(series, 0))

	assert.Empty(t, DetectSignals(models.MPriceSeries{}, 1))
}

func TestDetectSignals_ZeroThresholdKeepsFlatDays(t *testing.T) {
	series := consecutiveSeries(t, "2024-03-01", 100, 100, 101, 99)

	signals := DetectSignals(series, 0)

	require.Len(t, signals, 2)
	assert.Equal(t, 0.0, signals[0].PctChange)
	assert.Equal(t, 99.0, signals[1].PriceAtSignal)
}

func TestDetectSignals_BoundaryIsInclusive(t *testing.T) {
	series := consecutiveSeries(t, "2024-03-01", 100, 50, 49)

	signals := DetectSignals(series, 50)

	require.Len(t, signals, 1)
	assert.Equal(t, -50.0, signals[0].PctChange)
}

func TestDetectSignals_FractionalPrices(t *testing.T) {
	series := consecutiveSeries(t, "2024-03-01", 0.0004, 0.0002, 0.00021)

	signals := DetectSignals(series, 10)

	require.Len(t, signals, 1)
	assert.InDelta(t, -50.0, signals[0].PctChange, 1e-9)
}

func TestDetectSignals_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		closes := make([]float64, 200)
		closes[0] = 100
		for i := 1; i < len(closes); i++ {
			closes[i] = closes[i-1] * (1 + (rng.Float64()-0.5)*0.08)
		}
		series := consecutiveSeries(t, "2020-01-01", closes...)
		threshold := rng.Float64() * 3

		signals := DetectSignals(series, threshold)

		flagged := make(map[int]bool)
		for _, s := range signals {
			assert.LessOrEqual(t, s.PctChange, -threshold)
			flagged[CalendarDaysBetween(series.Points[0].Date, s.SignalDate)] = true
		}
		for i := 1; i < len(closes); i++ {
			pct := CalculateChangePercent(closes[i], closes[i-1])
			assert.Equal(t, pct <= -threshold, flagged[i], "day %d pct %.4f threshold %.4f", i, pct, threshold)
		}
	}
}
