package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"
)

// CachedSource serves repeated requests for the same series from a cache
// until the TTL expires. Cache failures fall through to the source.
type CachedSource struct {
	Source  interfaces.ISeriesSource
	Cache   interfaces.ISeriesCache
	TTL     time.Duration
	Metrics *metrics.Recorder
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCachedSource(src interfaces.ISeriesSource, cache interfaces.ISeriesCache, ttl time.Duration, recorder *metrics.Recorder) *CachedSource {
	return &CachedSource{
		Source:  src,
		Cache:   cache,
		TTL:     ttl,
		Metrics: recorder,
		Logger:  logger.NewLogger(nil, "CachedSource-"+src.Name()),
	}
}

// -----------------------------------------------------------------------------

func (c *CachedSource) Name() string {
	return c.Source.Name()
}

// -----------------------------------------------------------------------------

func (c *CachedSource) FetchDailySeries(ctx context.Context, symbol string, start time.Time) (models.MPriceSeries, error) {
	key := CacheKey(c.Source.Name(), symbol, start)

	series, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.Logger.Warning("Cache read failed for %s: %v", key, err)
	}
	c.Metrics.RecordCache(ok)
	if ok {
		return series, nil
	}

	series, err = c.Source.FetchDailySeries(ctx, symbol, start)
	if err != nil {
		return series, err
	}

	if len(series.Points) > 0 {
		if err := c.Cache.Set(ctx, key, series, c.TTL); err != nil {
			c.Logger.Warning("Cache write failed for %s: %v", key, err)
		}
	}
	return series, nil
}

// -----------------------------------------------------------------------------

// CacheKey identifies one series request.
func CacheKey(source, symbol string, start time.Time) string {
	from := "all"
	if !start.IsZero() {
		from = start.Format("2006-01-02")
	}
	return fmt.Sprintf("series:%s:%s:%s", source, strings.ToUpper(strings.TrimSpace(symbol)), from)
}
