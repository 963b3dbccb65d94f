package core

import "nday-analyzer/src/models"

// DetectSignals returns every day whose close fell by at least
// dropThresholdPct percent versus the previous trading day, in
// chronological order. The first point has no prior day and is never a
// signal. A threshold of 0 flags every day without a gain.
func DetectSignals(series models.MPriceSeries, dropThresholdPct float64) []models.MSignalEvent {
	var signals []models.MSignalEvent

	points := series.Points
	for t := 1; t < len(points); t++ {
		pct := CalculateChangePercent(points[t].Close, points[t-1].Close)
		if pct <= -dropThresholdPct {
			signals = append(signals, models.MSignalEvent{
				SignalDate:    points[t].Date,
				PriceAtSignal: points[t].Close,
				PctChange:     pct,
			})
		}
	}

	return signals
}
