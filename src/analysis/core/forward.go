package core

import (
	"time"

	"nday-analyzer/src/models"
)

// ResolveForwardOutcome looks up the close on the first trading day on or
// after signal date + daysAfter calendar days.
func ResolveForwardOutcome(signal models.MSignalEvent, series models.MPriceSeries, dates []time.Time, daysAfter int) models.MForwardOutcome {
	outcome := models.MForwardOutcome{
		Signal:             signal,
		TargetCalendarDate: AddCalendarDays(signal.SignalDate, daysAfter),
	}

	i := ResolveTradingIndex(dates, outcome.TargetCalendarDate)
	if i < 0 {
		return outcome
	}

	resolvedDate := series.Points[i].Date
	resolvedPrice := series.Points[i].Close
	elapsed := CalendarDaysBetween(signal.SignalDate, resolvedDate)

	outcome.Resolved = true
	outcome.ResolvedTradingDate = &resolvedDate
	outcome.ResolvedPrice = &resolvedPrice
	outcome.ActualCalendarDaysElapsed = &elapsed
	return outcome
}

// -----------------------------------------------------------------------------

// ResolveForwardOutcomes resolves every signal against the full series.
// Unresolvable signals are excluded from the returned slice and counted.
func ResolveForwardOutcomes(signals []models.MSignalEvent, series models.MPriceSeries, daysAfter int) ([]models.MForwardOutcome, int) {
	dates := series.Dates()
	resolved := make([]models.MForwardOutcome, 0, len(signals))
	unresolved := 0

	for _, s := range signals {
		outcome := ResolveForwardOutcome(s, series, dates, daysAfter)
		if !outcome.Resolved {
			unresolved++
			continue
		}
		resolved = append(resolved, outcome)
	}

	return resolved, unresolved
}
