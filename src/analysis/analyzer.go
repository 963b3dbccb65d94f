package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nday-analyzer/src/analysis/core"
	"nday-analyzer/src/helpers"
	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"
)

// fetchAttempts bounds source calls per request, on top of the network
// layer's own retries.
const fetchAttempts = 2

// Fallbacks for requests that omit a parameter and a config without
// analysis defaults.
const (
	DefaultDropThresholdPct = 1.0
	DefaultDaysAfter        = 3
)

// SourceLookup resolves a series source by name; "" is the default source.
type SourceLookup interface {
	GetSource(name string) (interfaces.ISeriesSource, error)
}

// Analyzer serves analysis requests: it fetches the series, runs the
// pipeline, stores the run and publishes it.
type Analyzer struct {
	Config    *models.MConfig
	Sources   SourceLookup
	Facade    *BacktestFacade
	DB        interfaces.IDatabase      // optional
	Exchanger interfaces.IDataExchanger // optional
	Metrics   *metrics.Recorder
	Logger    *logger.Logger

	// RetryDelay is the base backoff between fetch attempts.
	RetryDelay time.Duration

	newID func() string
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewAnalyzer(cfg *models.MConfig, sources SourceLookup, db interfaces.IDatabase, exchanger interfaces.IDataExchanger, recorder *metrics.Recorder, log *logger.Logger) *Analyzer {
	return &Analyzer{
		Config:     cfg,
		Sources:    sources,
		Facade:     NewBacktestFacade(cfg, log.Named("BacktestFacade"), recorder),
		DB:         db,
		Exchanger:  exchanger,
		Metrics:    recorder,
		Logger:     log,
		RetryDelay: time.Second,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// -----------------------------------------------------------------------------

// requestDefaults returns the configured analysis defaults, with the
// package fallbacks for anything left unset.
func (a *Analyzer) requestDefaults() models.MAnalysisParams {
	d := models.MAnalysisParams{
		DropThresholdPct: DefaultDropThresholdPct,
		DaysAfter:        DefaultDaysAfter,
		RecentLimit:      core.DefaultRecentLimit,
	}
	if a.Config == nil {
		return d
	}
	conf := a.Config.Analysis.Defaults
	if conf.DropThresholdPct > 0 {
		d.DropThresholdPct = conf.DropThresholdPct
	}
	if conf.DaysAfter > 0 {
		d.DaysAfter = conf.DaysAfter
	}
	if conf.RecentLimit > 0 {
		d.RecentLimit = conf.RecentLimit
	}
	return d
}

// -----------------------------------------------------------------------------

// Analyze runs one request end to end. Invalid input is returned as
// *helpers.ValidationError before anything is fetched; terminal states
// come back as a run whose status is not completed.
func (a *Analyzer) Analyze(ctx context.Context, req models.MAnalysisRequest) (*models.MAnalysisRun, error) {
	started := a.now()

	if err := helpers.ApplyDefaultsAndValidate(ctx, &req); err != nil {
		return nil, err
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))

	params, err := ParamsFromRequest(req, a.requestDefaults())
	if err != nil {
		return nil, err
	}

	source, err := a.Sources.GetSource(req.Source)
	if err != nil {
		return nil, helpers.NewValidationError("source", "%v", err)
	}

	series, err := a.fetch(ctx, source, req.Symbol, params.StartDate)
	if err != nil {
		return nil, err
	}
	if series.Symbol == "" {
		series.Symbol = req.Symbol
	}

	result, err := a.Facade.Run(series, params)
	if err != nil {
		return nil, err
	}

	run := &models.MAnalysisRun{
		ID:        a.newID(),
		Source:    source.Name(),
		Result:    *result,
		ElapsedMs: a.now().Sub(started).Milliseconds(),
		CreatedAt: a.now().UTC(),
	}

	if a.DB != nil && (req.Persist == nil || *req.Persist) {
		if err := a.DB.SaveAnalysisRun(run); err != nil {
			a.Logger.Error("Failed to persist run %s for %s: %v", run.ID, run.Result.Symbol, err)
		}
	}
	if a.Exchanger != nil {
		a.Exchanger.PublishRun(run)
	}

	return run, nil
}

// -----------------------------------------------------------------------------

func (a *Analyzer) fetch(ctx context.Context, source interfaces.ISeriesSource, symbol string, start time.Time) (models.MPriceSeries, error) {
	fetchStarted := time.Now()
	series, err := helpers.RetryWithBackoff(ctx, "fetch "+symbol, fetchAttempts, a.RetryDelay,
		func(ctx context.Context) (models.MPriceSeries, error) {
			return source.FetchDailySeries(ctx, symbol, start)
		})
	a.Metrics.RecordFetch(source.Name(), time.Since(fetchStarted).Seconds(), err)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return series, err
		}
		return series, helpers.NewDataSourceError(source.Name(), symbol, err)
	}
	return series, nil
}

// -----------------------------------------------------------------------------

// AnalyzeBatch runs independent requests concurrently, bounded by
// analysis.max_concurrency. A failing request does not cancel the others;
// its error is reported in its item. Items keep the request order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []models.MAnalysisRequest) ([]models.MBatchItem, error) {
	if len(reqs) == 0 {
		return nil, helpers.NewValidationError("requests", "at least one request is required")
	}

	limit := a.Config.Analysis.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}

	items := make([]models.MBatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			items[i].Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
			run, err := a.Analyze(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				items[i].Error = err.Error()
				return nil
			}
			items[i].Run = run
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, fmt.Errorf("batch interrupted: %w", err)
	}

	completed := 0
	for _, it := range items {
		if it.Run != nil && it.Run.Result.Status == models.StatusCompleted {
			completed++
		}
	}
	a.Logger.Info("Batch of %d finished: %d completed", len(reqs), completed)
	return items, nil
}
