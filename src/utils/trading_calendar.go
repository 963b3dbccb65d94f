package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"

	"nday-analyzer/src/logger"
)

// TradingCalendar answers exchange session questions using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// Symbol suffix to exchange MIC (ISO 10383). Unlisted suffixes map to xnys.
var suffixMICs = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"},
	{".PA", "xpar"},
	{".DE", "xfra"},
	{".AS", "xams"},
	{".BR", "xbru"},
	{".MI", "xmil"},
	{".MC", "xmad"},
	{".ST", "xsto"},
	{".CO", "xcse"},
	{".HE", "xhel"},
	{".VI", "xwbo"},
	{".SW", "xswx"},
	{".TO", "xtse"},
	{".V", "xtsx"},
	{".T", "xtks"},
	{".HK", "xhkg"},
	{".AX", "xasx"},
	{".KS", "xkrx"},
	{".KQ", "xkrx"},
	{".TW", "xtai"},
	{".SS", "xshg"},
	{".SZ", "xshe"},
}

// -----------------------------------------------------------------------------

// MICForSymbol maps a Yahoo style ticker to its exchange MIC.
func MICForSymbol(symbol string) string {
	upper := strings.ToUpper(symbol)
	for _, s := range suffixMICs {
		if strings.HasSuffix(upper, s.suffix) {
			return s.mic
		}
	}
	return "xnys"
}

// -----------------------------------------------------------------------------

// GetCalendar returns the exchange calendar of a symbol. When no calendar
// can be loaded it degrades to a Mon-Fri calendar in New York time.
func GetCalendar(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		mic = "xnys"
		cal = calendar.GetCalendar(mic)
	}

	if cal == nil {
		logger.NewLogger(nil, "TradingCalendar").Warning("Failed to load calendar for %s, using Mon-Fri fallback", symbol)
		nyLoc, err := time.LoadLocation("America/New_York")
		if err != nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the exchange holds a session on the given
// calendar day. Only the year, month and day of date are used.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	loc := tc.Timezone
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	local := time.Date(y, m, d, 12, 0, 0, 0, loc)

	if tc.Fallback || tc.Calendar == nil {
		weekday := local.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(local)
}

// -----------------------------------------------------------------------------

// MissingSessions counts exchange sessions between the first and last date
// of an ascending series that have no bar in the series. It is a data
// quality diagnostic only; forward resolution never consults the exchange.
func (tc *TradingCalendar) MissingSessions(dates []time.Time) int {
	if len(dates) < 2 {
		return 0
	}

	present := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		y, m, dd := d.Date()
		present[time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)] = struct{}{}
	}

	first, last := dates[0], dates[len(dates)-1]
	y, m, d := first.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	missing := 0
	for !day.After(last) {
		if _, ok := present[day]; !ok && tc.IsTradingDay(day) {
			missing++
		}
		day = day.AddDate(0, 0, 1)
	}
	return missing
}
