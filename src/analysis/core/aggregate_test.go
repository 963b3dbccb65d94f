package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nday-analyzer/src/models"
)

func classified(t *testing.T, date string, signal, forward, drop float64, elapsed int) models.MClassifiedOutcome {
	t.Helper()
	result, pct, tie := ClassifyPrices(signal, forward, models.TieBreakLose)
	d := day(t, date)
	return models.MClassifiedOutcome{
		SignalDate:                d,
		PriceAtSignal:             signal,
		PctChange:                 drop,
		TargetCalendarDate:        d.AddDate(0, 0, elapsed),
		ResolvedTradingDate:       d.AddDate(0, 0, elapsed),
		ResolvedPrice:             forward,
		ActualCalendarDaysElapsed: elapsed,
		Result:                    result,
		PctChangeForward:          pct,
		Tie:                       tie,
	}
}

func TestAggregate_Summary(t *testing.T) {
	input := []models.MClassifiedOutcome{
		classified(t, "2024-01-02", 100, 90, -2, 3),  // win  -10%
		classified(t, "2024-01-05", 100, 110, -4, 5), // lose +10%
		classified(t, "2024-01-03", 100, 95, -1, 3),  // win  -5%
		classified(t, "2024-01-04", 100, 100, -3, 5), // lose  0% (tie)
	}

	s := Aggregate(input, 50)

	assert.Equal(t, 4, s.TotalSignals)
	assert.Equal(t, 2, s.WinCount)
	assert.Equal(t, 2, s.LoseCount)
	assert.Equal(t, 1, s.TieCount)
	assert.Equal(t, s.TotalSignals, s.WinCount+s.LoseCount)
	assert.InDelta(t, 0.5, s.WinRate, 1e-12)
	assert.InDelta(t, 50.0, s.WinPct, 1e-9)
	assert.InDelta(t, 50.0, s.LosePct, 1e-9)
	assert.Equal(t, models.StrategyNeutral, s.Strategy)

	assert.InDelta(t, -2.5, s.MeanDropPct, 1e-9)
	assert.InDelta(t, -4.0, s.MinDropPct, 1e-9)
	assert.InDelta(t, -1.25, s.MeanForwardChangePct, 1e-9)
	assert.InDelta(t, -2.5, s.MedianForwardChangePct, 1e-9)
	require.NotNil(t, s.MeanForwardChangeGivenWin)
	require.NotNil(t, s.MeanForwardChangeGivenLose)
	assert.InDelta(t, -7.5, *s.MeanForwardChangeGivenWin, 1e-9)
	assert.InDelta(t, 5.0, *s.MeanForwardChangeGivenLose, 1e-9)
	assert.InDelta(t, 4.0, s.MeanActualDaysElapsed, 1e-9)

	require.Len(t, s.RecentExamples, 4)
	assert.Equal(t, day(t, "2024-01-05"), s.RecentExamples[0].SignalDate)
	assert.Equal(t, day(t, "2024-01-02"), s.RecentExamples[3].SignalDate)
}

func TestAggregate_EmptySubsetIsNotAvailable(t *testing.T) {
	input := []models.MClassifiedOutcome{
		classified(t, "2024-01-02", 100, 90, -2, 3),
		classified(t, "2024-01-03", 100, 80, -2, 3),
	}

	s := Aggregate(input, 50)

	assert.Equal(t, 1.0, s.WinRate)
	assert.Equal(t, models.StrategySellImmediately, s.Strategy)
	require.NotNil(t, s.MeanForwardChangeGivenWin)
	assert.Nil(t, s.MeanForwardChangeGivenLose)
}

func TestAggregate_NoOutcomes(t *testing.T) {
	s := Aggregate(nil, 50)

	assert.Equal(t, 0, s.TotalSignals)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Empty(t, s.Strategy)
	assert.Nil(t, s.MeanForwardChangeGivenWin)
	assert.Nil(t, s.MeanForwardChangeGivenLose)
	assert.NotNil(t, s.RecentExamples)
	assert.Empty(t, s.RecentExamples)
}

func TestAggregate_RecentExamplesBoundedAndDescending(t *testing.T) {
	start := day(t, "2023-01-01")
	var input []models.MClassifiedOutcome
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		input = append(input, classified(t, d, 100, 100+float64(i%3)-1, -1.5, 3))
	}

	s := Aggregate(input, 0)

	require.Len(t, s.RecentExamples, DefaultRecentLimit)
	assert.Equal(t, start.AddDate(0, 0, 59), s.RecentExamples[0].SignalDate)
	assert.Equal(t, start.AddDate(0, 0, 10), s.RecentExamples[49].SignalDate)
	for i := 1; i < len(s.RecentExamples); i++ {
		assert.True(t, s.RecentExamples[i-1].SignalDate.After(s.RecentExamples[i].SignalDate))
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	input := []models.MClassifiedOutcome{
		classified(t, "2024-02-10", 50, 49, -1.2, 3),
		classified(t, "2024-01-10", 50, 52, -3.3, 4),
		classified(t, "2024-03-10", 50, 50, -1.0, 3),
	}
	before := make([]models.MClassifiedOutcome, len(input))
	copy(before, input)

	first := Aggregate(input, 2)
	second := Aggregate(input, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, before, input, "input must not be reordered")
}

func TestAggregate_RecentExamplesRoundTrip(t *testing.T) {
	series := consecutiveSeries(t, "2024-01-01", 100, 97, 96, 99, 94, 94, 97, 90, 92, 93, 88, 91)
	signals := DetectSignals(series, 1)
	outcomes, _ := ResolveForwardOutcomes(signals, series, 2)
	s := Aggregate(ClassifyOutcomes(outcomes, models.TieBreakLose), 50)
	require.NotEmpty(t, s.RecentExamples)

	for _, ex := range s.RecentExamples {
		result, pct, tie := ClassifyPrices(ex.PriceAtSignal, ex.ResolvedPrice, models.TieBreakLose)
		assert.Equal(t, ex.Result, result)
		assert.Equal(t, ex.PctChangeForward, pct)
		assert.Equal(t, ex.Tie, tie)
	}
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		rate float64
		want models.EStrategy
	}{
		{0.0, models.StrategyWait},
		{0.4499, models.StrategyWait},
		{0.45, models.StrategyNeutral},
		{0.5, models.StrategyNeutral},
		{0.55, models.StrategyNeutral},
		{0.5501, models.StrategySellImmediately},
		{1.0, models.StrategySellImmediately},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrategyFor(tt.rate), "rate %v", tt.rate)
	}
}

func TestRecentExamples_StableForEqualDates(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	input := []models.MClassifiedOutcome{
		{SignalDate: d, PriceAtSignal: 1},
		{SignalDate: d, PriceAtSignal: 2},
	}
	recent := RecentExamples(input, 50)
	require.Len(t, recent, 2)
	assert.Equal(t, 2.0, recent[0].PriceAtSignal)
}
