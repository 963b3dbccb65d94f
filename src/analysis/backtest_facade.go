package analysis

import (
	"time"

	"nday-analyzer/src/analysis/core"
	"nday-analyzer/src/helpers"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"
	"nday-analyzer/src/utils"
)

// BacktestFacade runs the drop rebound pipeline over one series. It holds
// no per-run state and is safe for concurrent use.
type BacktestFacade struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Metrics *metrics.Recorder

	// CalendarFor resolves the exchange calendar used for diagnostics.
	// Nil disables the missing session count.
	CalendarFor func(symbol string) *utils.TradingCalendar
}

// -----------------------------------------------------------------------------

func NewBacktestFacade(cfg *models.MConfig, log *logger.Logger, recorder *metrics.Recorder) *BacktestFacade {
	return &BacktestFacade{
		Config:      cfg,
		Logger:      log,
		Metrics:     recorder,
		CalendarFor: utils.GetCalendar,
	}
}

// -----------------------------------------------------------------------------

// Run validates the inputs, then detects, resolves, classifies and
// aggregates. Terminal states are reported through the result status; the
// error return is reserved for invalid parameters or series.
func (a *BacktestFacade) Run(series models.MPriceSeries, params models.MAnalysisParams) (*models.MAnalysisResult, error) {
	started := time.Now()

	if params.TieBreak == "" {
		params.TieBreak = models.TieBreakLose
	}
	if params.RecentLimit == 0 {
		params.RecentLimit = core.DefaultRecentLimit
	}

	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	if err := core.ValidateSeries(series); err != nil {
		return nil, err
	}

	series = series.TruncateBefore(params.StartDate)

	result := &models.MAnalysisResult{
		Symbol: series.Symbol,
		Params: params,
	}
	result.Diagnostics = a.diagnostics(series)

	defer func() {
		a.Metrics.RecordRun(string(result.Status), time.Since(started).Seconds())
	}()

	if series.Len() < core.MinSeriesPoints {
		return a.terminal(result, models.StatusInsufficientData, core.ErrInsufficientData), nil
	}

	signals := core.DetectSignals(series, params.DropThresholdPct)
	result.Diagnostics.DetectedSignals = len(signals)
	a.Metrics.RecordSignals("detected", len(signals))
	if len(signals) == 0 {
		return a.terminal(result, models.StatusNoSignals, core.ErrNoSignals), nil
	}

	outcomes, unresolved := core.ResolveForwardOutcomes(signals, series, params.DaysAfter)
	result.Diagnostics.UnresolvedSignals = unresolved
	a.Metrics.RecordSignals("unresolved", unresolved)
	if len(outcomes) == 0 {
		return a.terminal(result, models.StatusNoForwardData, core.ErrNoForwardData), nil
	}

	classified := core.ClassifyOutcomes(outcomes, params.TieBreak)
	a.Metrics.RecordSignals("classified", len(classified))

	summary := core.Aggregate(classified, params.RecentLimit)
	result.Status = models.StatusCompleted
	result.Summary = &summary
	result.Outcomes = classified
	a.Metrics.RecordWinRate(summary.Strategy, summary.WinRate)

	a.Logger.Info("%s: %d signals (>= %.2f%% drop), %d resolved after %d days, win rate %.1f%% (%s)",
		series.Symbol, len(signals), params.DropThresholdPct, len(classified), params.DaysAfter,
		summary.WinPct, summary.Strategy)
	if unresolved > 0 {
		a.Logger.Debug("%s: %d signals too recent for a %d day lookahead", series.Symbol, unresolved, params.DaysAfter)
	}

	return result, nil
}

// -----------------------------------------------------------------------------

func (a *BacktestFacade) terminal(result *models.MAnalysisResult, status models.EAnalysisStatus, cause error) *models.MAnalysisResult {
	result.Status = status
	result.Message = cause.Error()
	a.Logger.Info("%s: %s", result.Symbol, result.Message)
	return result
}

// -----------------------------------------------------------------------------

func (a *BacktestFacade) diagnostics(series models.MPriceSeries) models.MAnalysisDiagnostics {
	d := models.MAnalysisDiagnostics{SeriesPoints: series.Len()}
	if series.Len() == 0 {
		return d
	}

	d.FirstDate = series.Points[0].Date
	d.LastDate = series.Points[series.Len()-1].Date

	if a.CalendarFor == nil {
		return d
	}
	cal := a.CalendarFor(series.Symbol)
	if cal == nil {
		return d
	}
	d.ExchangeCalendar = cal.MIC
	d.MissingSessions = cal.MissingSessions(series.Dates())
	if d.MissingSessions > 0 {
		a.Logger.Debug("%s: %d %s sessions have no bar between %s and %s", series.Symbol,
			d.MissingSessions, cal.MIC, d.FirstDate.Format("2006-01-02"), d.LastDate.Format("2006-01-02"))
	}
	return d
}

// -----------------------------------------------------------------------------

// ParamsFromRequest converts a validated request into pipeline parameters.
// Numeric fields the request leaves nil are taken from defaults; explicit
// values are passed through unchanged so ValidateParams sees them.
func ParamsFromRequest(req models.MAnalysisRequest, defaults models.MAnalysisParams) (models.MAnalysisParams, error) {
	params := models.MAnalysisParams{
		DropThresholdPct: defaults.DropThresholdPct,
		DaysAfter:        defaults.DaysAfter,
		TieBreak:         models.ETieBreak(req.TieBreak),
		RecentLimit:      defaults.RecentLimit,
	}
	if req.DropThresholdPct != nil {
		params.DropThresholdPct = *req.DropThresholdPct
	}
	if req.DaysAfter != nil {
		params.DaysAfter = *req.DaysAfter
	}
	if req.RecentLimit != nil {
		params.RecentLimit = *req.RecentLimit
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return params, helpers.NewValidationError("start_date", "%q is not a YYYY-MM-DD date", req.StartDate)
		}
		params.StartDate = start
	}
	return params, nil
}
