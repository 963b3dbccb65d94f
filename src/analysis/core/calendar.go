package core

import (
	"sort"
	"time"
)

// ResolveTradingDate returns the first date in dates that is on or after
// target. dates must be ascending. The second return value is false when
// target falls after the last known date; the calendar is never extrapolated.
func ResolveTradingDate(dates []time.Time, target time.Time) (time.Time, bool) {
	i := ResolveTradingIndex(dates, target)
	if i < 0 {
		return time.Time{}, false
	}
	return dates[i], true
}

// -----------------------------------------------------------------------------

// ResolveTradingIndex is the index form of ResolveTradingDate, -1 when absent.
func ResolveTradingIndex(dates []time.Time, target time.Time) int {
	i := sort.Search(len(dates), func(i int) bool {
		return !dates[i].Before(target)
	})
	if i == len(dates) {
		return -1
	}
	return i
}
