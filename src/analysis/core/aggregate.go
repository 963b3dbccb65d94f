package core

import (
	"sort"

	"nday-analyzer/src/models"
)

const (
	// DefaultRecentLimit bounds RecentExamples.
	DefaultRecentLimit = 50

	sellImmediatelyWinRate = 0.55
	waitWinRate            = 0.45
)

// -----------------------------------------------------------------------------

// StrategyFor maps a win rate to a strategy. Both bounds are neutral.
func StrategyFor(winRate float64) models.EStrategy {
	switch {
	case winRate > sellImmediatelyWinRate:
		return models.StrategySellImmediately
	case winRate < waitWinRate:
		return models.StrategyWait
	default:
		return models.StrategyNeutral
	}
}

// -----------------------------------------------------------------------------

// Aggregate reduces classified outcomes to a summary. The input slice is
// not modified, so repeated calls on the same input are identical.
// With no outcomes the summary is zero-valued and Strategy is empty; callers
// treat that as "no analysis possible", not as a 0% win rate.
func Aggregate(classified []models.MClassifiedOutcome, recentLimit int) models.MAggregateSummary {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}

	total := len(classified)
	summary := models.MAggregateSummary{
		TotalSignals:   total,
		RecentExamples: []models.MClassifiedOutcome{},
	}
	if total == 0 {
		return summary
	}

	drops := make([]float64, 0, total)
	forward := make([]float64, 0, total)
	var winForward, loseForward []float64
	elapsedSum := 0

	for _, c := range classified {
		drops = append(drops, c.PctChange)
		forward = append(forward, c.PctChangeForward)
		elapsedSum += c.ActualCalendarDaysElapsed

		if c.Tie {
			summary.TieCount++
		}
		if c.Result == models.ResultWin {
			summary.WinCount++
			winForward = append(winForward, c.PctChangeForward)
		} else {
			summary.LoseCount++
			loseForward = append(loseForward, c.PctChangeForward)
		}
	}

	summary.WinRate = float64(summary.WinCount) / float64(total)
	summary.WinPct = summary.WinRate * 100
	summary.LosePct = float64(summary.LoseCount) / float64(total) * 100
	summary.Strategy = StrategyFor(summary.WinRate)

	summary.MeanDropPct = CalculateMean(drops)
	summary.MinDropPct = CalculateMin(drops)

	summary.MeanForwardChangePct, summary.StdForwardChangePct = CalculateMeanStd(forward)
	summary.MedianForwardChangePct = CalculateMedian(forward)
	summary.MeanForwardChangeGivenWin = CalculateMeanOptional(winForward)
	summary.MeanForwardChangeGivenLose = CalculateMeanOptional(loseForward)
	summary.MeanActualDaysElapsed = float64(elapsedSum) / float64(total)

	summary.RecentExamples = RecentExamples(classified, recentLimit)
	return summary
}

// -----------------------------------------------------------------------------

// RecentExamples returns the last limit outcomes by signal date, most recent
// first. It works on a copy.
func RecentExamples(classified []models.MClassifiedOutcome, limit int) []models.MClassifiedOutcome {
	byDate := make([]models.MClassifiedOutcome, len(classified))
	copy(byDate, classified)
	sort.SliceStable(byDate, func(i, j int) bool {
		return byDate[i].SignalDate.Before(byDate[j].SignalDate)
	})

	if len(byDate) > limit {
		byDate = byDate[len(byDate)-limit:]
	}

	recent := make([]models.MClassifiedOutcome, 0, len(byDate))
	for i := len(byDate) - 1; i >= 0; i-- {
		recent = append(recent, byDate[i])
	}
	return recent
}
