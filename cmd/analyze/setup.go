package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"nday-analyzer/src/analysis"
	"nday-analyzer/src/cache"
	"nday-analyzer/src/config"
	datasource "nday-analyzer/src/data_source"
	"nday-analyzer/src/helpers"
	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"
	"nday-analyzer/src/network"
	"nday-analyzer/src/storage"
)

// options holds the command line flags
type options struct {
	configPath string
	symbol     string
	source     string
	drop       float64
	days       int
	start      string
	tieBreak   string
	recent     int
	persist    bool
	full       bool
}

// -----------------------------------------------------------------------------

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to config file (defaults are used when empty)")
	fs.StringVar(&opts.symbol, "symbol", "", "ticker symbol, e.g. AAPL or 005930.KS")
	fs.StringVar(&opts.source, "source", "", "data source name (default source when empty)")
	fs.Float64Var(&opts.drop, "drop", 1.0, "drop threshold in percent, (0, 100]")
	fs.IntVar(&opts.days, "days", 3, "lookahead in calendar days")
	fs.StringVar(&opts.start, "start", "2020-01-01", "analysis start date, YYYY-MM-DD")
	fs.StringVar(&opts.tieBreak, "tie", string(models.TieBreakLose), "label for an unchanged forward price: lose or win")
	fs.IntVar(&opts.recent, "recent", 50, "number of recent examples in the summary")
	fs.BoolVar(&opts.persist, "persist", false, "store the run in the configured database")
	fs.BoolVar(&opts.full, "full", false, "print the whole run instead of the result only")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if strings.TrimSpace(opts.symbol) == "" {
		return nil, fmt.Errorf("-symbol is required")
	}
	if opts.drop <= 0 || opts.drop > 100 {
		return nil, fmt.Errorf("-drop must be in (0, 100], got %v", opts.drop)
	}
	if opts.days <= 0 {
		return nil, fmt.Errorf("-days must be positive, got %d", opts.days)
	}
	return opts, nil
}

// -----------------------------------------------------------------------------

func (o *options) request() models.MAnalysisRequest {
	persist := o.persist
	return models.MAnalysisRequest{
		Symbol:           o.symbol,
		Source:           o.source,
		DropThresholdPct: helpers.Ptr(o.drop),
		DaysAfter:        helpers.Ptr(o.days),
		StartDate:        o.start,
		TieBreak:         o.tieBreak,
		RecentLimit:      helpers.Ptr(o.recent),
		Persist:          &persist,
	}
}

// -----------------------------------------------------------------------------

type app struct {
	analyzer *analysis.Analyzer
	db       interfaces.IDatabase
	cache    interfaces.ISeriesCache
}

// setup wires the analyzer without the HTTP and gRPC surfaces. The database
// is only opened when -persist is set.
func setup(ctx context.Context, opts *options, stderr io.Writer) (*app, error) {
	conf, err := config.NewConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Setup(conf.LogLevel, conf.LogFormat, stderr); err != nil {
		return nil, err
	}
	appLogger := logger.NewLogger(conf, "analyze")

	a := &app{}
	if opts.persist {
		a.db, err = storage.NewDatabase(conf.MConfig, appLogger.Named("Storage"))
		if err != nil {
			return nil, err
		}
	}

	a.cache, err = cache.NewSeriesCache(ctx, conf.MConfig, appLogger.Named("Cache"))
	if err != nil {
		a.Close()
		return nil, err
	}

	recorder := metrics.New()
	networkManager := network.NewAsyncNetworkManager(conf.MConfig, appLogger.Named("Network"))

	sources, err := datasource.BuildSourceRegistry(conf.MConfig, networkManager, a.cache, recorder, appLogger.Named("Sources"))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.analyzer = analysis.NewAnalyzer(conf.MConfig, sources, a.db, nil, recorder, appLogger.Named("Analyzer"))
	return a, nil
}

// -----------------------------------------------------------------------------

func (a *app) Close() {
	if closer, ok := a.cache.(io.Closer); ok {
		_ = closer.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
