package core

import (
	"math"

	"nday-analyzer/src/helpers"
	"nday-analyzer/src/models"
)

// Terminal states of a run. They are reported as run statuses, these
// sentinels exist for errors.Is callers.
var (
	ErrInsufficientData = models.ErrInsufficientData
	ErrNoSignals        = models.ErrNoSignals
	ErrNoForwardData    = models.ErrNoForwardData
)

// MinSeriesPoints is the shortest series the detector can run on.
const MinSeriesPoints = 2

// -----------------------------------------------------------------------------

// ValidateParams rejects parameters before any processing begins.
func ValidateParams(params models.MAnalysisParams) error {
	if math.IsNaN(params.DropThresholdPct) || params.DropThresholdPct <= 0 || params.DropThresholdPct > 100 {
		return helpers.NewValidationError("drop_threshold_pct", "must be in (0, 100], got %v", params.DropThresholdPct)
	}
	if params.DaysAfter <= 0 {
		return helpers.NewValidationError("days_after", "must be a positive number of calendar days, got %d", params.DaysAfter)
	}
	switch params.TieBreak {
	case "", models.TieBreakLose, models.TieBreakWin:
	default:
		return helpers.NewValidationError("tie_break", "must be %q or %q, got %q", models.TieBreakLose, models.TieBreakWin, params.TieBreak)
	}
	if params.RecentLimit < 0 {
		return helpers.NewValidationError("recent_limit", "must not be negative, got %d", params.RecentLimit)
	}
	return nil
}

// -----------------------------------------------------------------------------

// ValidateSeries checks the series invariants: valid dates, strictly
// increasing, positive finite closes. Length is not checked here; a short
// series is a terminal state, not invalid input.
func ValidateSeries(series models.MPriceSeries) error {
	for i, p := range series.Points {
		if p.Date.IsZero() {
			return helpers.NewValidationError("series", "point %d has no date", i)
		}
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return helpers.NewValidationError("series", "point %d (%s) has non-positive close %v", i, p.Date.Format("2006-01-02"), p.Close)
		}
		if i > 0 && !series.Points[i-1].Date.Before(p.Date) {
			return helpers.NewValidationError("series", "dates must be strictly increasing at point %d (%s)", i, p.Date.Format("2006-01-02"))
		}
	}
	return nil
}
