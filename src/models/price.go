package models

import "time"

// MPricePoint is one daily close. Date is a calendar day at midnight UTC.
type MPricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// MPriceSeries is an ascending, de-duplicated daily series for one instrument.
type MPriceSeries struct {
	Symbol   string        `json:"symbol"`
	Currency string        `json:"currency,omitempty"`
	Exchange string        `json:"exchange,omitempty"`
	Points   []MPricePoint `json:"points"`
}

// -----------------------------------------------------------------------------

// Dates returns the trading calendar of the series (its own dates).
func (s MPriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// -----------------------------------------------------------------------------

// Len returns the number of points.
func (s MPriceSeries) Len() int {
	return len(s.Points)
}

// -----------------------------------------------------------------------------

// TruncateBefore returns a copy of the series without points dated before start.
// A zero start returns the series unchanged.
func (s MPriceSeries) TruncateBefore(start time.Time) MPriceSeries {
	if start.IsZero() {
		return s
	}
	out := s
	out.Points = nil
	for _, p := range s.Points {
		if !p.Date.Before(start) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// CalendarDay truncates t to its calendar day in t's own location and
// returns that day at midnight UTC.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
