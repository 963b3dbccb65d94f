package core

import (
	"math"
	"time"
)

const hoursPerDay = 24

// -----------------------------------------------------------------------------

// CalculateChangePercent returns the percentage change from previous to
// current, e.g. 100 -> 98 is -2.0.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}

// -----------------------------------------------------------------------------

// CalendarDaysBetween counts whole calendar days from `from` to `to`.
// Both values are calendar days at midnight UTC, so DST never applies.
func CalendarDaysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / hoursPerDay))
}

// -----------------------------------------------------------------------------

// AddCalendarDays moves a calendar day forward by n days.
func AddCalendarDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}
