package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nday-analyzer/src/models"
)

func sampleSeries() models.MPriceSeries {
	return models.MPriceSeries{
		Symbol: "AAPL",
		Points: []models.MPricePoint{
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.6},
			{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 184.2},
		},
	}
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	series := sampleSeries()
	require.NoError(t, c.Set(ctx, "AAPL", series, time.Minute))
	series.Points[0].Close = 1

	got, ok, err := c.Get(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 185.6, got.Points[0].Close)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", sampleSeries(), time.Minute))
	require.NoError(t, c.Set(ctx, "b", sampleSeries(), time.Hour))
	require.NoError(t, c.Set(ctx, "forever", sampleSeries(), 0))

	now = now.Add(2 * time.Minute)

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "b")
	assert.True(t, ok)

	now = now.Add(24 * time.Hour)
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
}
