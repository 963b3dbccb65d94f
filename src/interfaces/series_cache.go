package interfaces

import (
	"context"
	"time"

	"nday-analyzer/src/models"
)

// -----------------------------------------------------------------------------
// ISeriesCache stores fetched price series for a bounded time.
// -----------------------------------------------------------------------------

type ISeriesCache interface {

	// Get returns the cached series and whether it was found and fresh.
	Get(ctx context.Context, key string) (models.MPriceSeries, bool, error)

	// -----------------------------------------------------------------------------

	// Set stores a series for ttl.
	Set(ctx context.Context, key string, series models.MPriceSeries, ttl time.Duration) error
}
