package core

import (
	"testing"
	"time"

	"nday-analyzer/src/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// consecutiveSeries builds a series on consecutive calendar days from start.
func consecutiveSeries(t *testing.T, start string, closes ...float64) models.MPriceSeries {
	t.Helper()
	d := day(t, start)
	points := make([]models.MPricePoint, len(closes))
	for i, c := range closes {
		points[i] = models.MPricePoint{Date: d.AddDate(0, 0, i), Close: c}
	}
	return models.MPriceSeries{Symbol: "TEST", Points: points}
}

// datedSeries builds a series from "date=close" pairs given as parallel slices.
func datedSeries(t *testing.T, dates []string, closes []float64) models.MPriceSeries {
	t.Helper()
	if len(dates) != len(closes) {
		t.Fatalf("dates and closes differ in length")
	}
	points := make([]models.MPricePoint, len(dates))
	for i := range dates {
		points[i] = models.MPricePoint{Date: day(t, dates[i]), Close: closes[i]}
	}
	return models.MPriceSeries{Symbol: "TEST", Points: points}
}

func ptr[T any](v T) *T { return &v }
