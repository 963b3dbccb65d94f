package interfaces

import (
	"context"
	"time"

	"nday-analyzer/src/models"
)

// -----------------------------------------------------------------------------
// ISeriesSource fetches daily close series from an external provider.
// -----------------------------------------------------------------------------

type ISeriesSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchDailySeries returns the ascending daily closes of symbol from start
	// (inclusive) to the latest available session. A zero start means the
	// full history the provider offers.
	FetchDailySeries(ctx context.Context, symbol string, start time.Time) (models.MPriceSeries, error)
}
