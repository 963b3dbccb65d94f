package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveTradingDate(t *testing.T) {
	// Thu, Fri, Mon (weekend gap), Wed (holiday gap on Tue)
	dates := []time.Time{
		day(t, "2024-01-04"),
		day(t, "2024-01-05"),
		day(t, "2024-01-08"),
		day(t, "2024-01-10"),
	}

	tests := []struct {
		name   string
		target string
		want   string
		ok     bool
	}{
		{"exact match", "2024-01-05", "2024-01-05", true},
		{"saturday rolls to monday", "2024-01-06", "2024-01-08", true},
		{"sunday rolls to monday", "2024-01-07", "2024-01-08", true},
		{"missing bar rolls forward", "2024-01-09", "2024-01-10", true},
		{"before first date", "2024-01-01", "2024-01-04", true},
		{"last date", "2024-01-10", "2024-01-10", true},
		{"after last date is absent", "2024-01-11", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveTradingDate(dates, day(t, tt.target))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, day(t, tt.want), got)
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestResolveTradingDate_EmptyCalendar(t *testing.T) {
	_, ok := ResolveTradingDate(nil, day(t, "2024-01-01"))
	assert.False(t, ok)
	assert.Equal(t, -1, ResolveTradingIndex(nil, day(t, "2024-01-01")))
}

func TestCalendarDaysBetween(t *testing.T) {
	assert.Equal(t, 3, CalendarDaysBetween(day(t, "2024-01-05"), day(t, "2024-01-08")))
	assert.Equal(t, 0, CalendarDaysBetween(day(t, "2024-01-05"), day(t, "2024-01-05")))
	// leap day and year boundary
	assert.Equal(t, 2, CalendarDaysBetween(day(t, "2024-02-28"), day(t, "2024-03-01")))
	assert.Equal(t, 366, CalendarDaysBetween(day(t, "2024-01-01"), day(t, "2025-01-01")))
}
