package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestMICForSymbol(t *testing.T) {
	assert.Equal(t, "xnys", MICForSymbol("AAPL"))
	assert.Equal(t, "xpar", MICForSymbol("MC.PA"))
	assert.Equal(t, "xlon", MICForSymbol("vod.l"))
	assert.Equal(t, "xtks", MICForSymbol("7203.T"))
	assert.Equal(t, "xkrx", MICForSymbol("005930.KS"))
	assert.Equal(t, "xkrx", MICForSymbol("035720.kq"))
	assert.Equal(t, "xtai", MICForSymbol("2330.TW"))
}

func TestFallbackCalendar(t *testing.T) {
	tc := &TradingCalendar{Fallback: true, Timezone: time.UTC}

	assert.True(t, tc.IsTradingDay(d("2024-01-05")))  // Friday
	assert.False(t, tc.IsTradingDay(d("2024-01-06"))) // Saturday

	// Mon 01-08 .. Fri 01-12 with Wednesday missing.
	dates := []time.Time{d("2024-01-08"), d("2024-01-09"), d("2024-01-11"), d("2024-01-12")}
	assert.Equal(t, 1, tc.MissingSessions(dates))

	// Weekend gaps are not missing sessions.
	assert.Equal(t, 0, tc.MissingSessions([]time.Time{d("2024-01-05"), d("2024-01-08")}))
	assert.Equal(t, 0, tc.MissingSessions(nil))
}

func TestGetCalendar_NYSEHoliday(t *testing.T) {
	tc := GetCalendar("AAPL")
	if tc.Fallback {
		t.Skip("exchange calendar unavailable")
	}
	assert.Equal(t, "xnys", tc.MIC)
	assert.False(t, tc.IsTradingDay(d("2024-12-25")))
	assert.True(t, tc.IsTradingDay(d("2024-12-24")))
}
