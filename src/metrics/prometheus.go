package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nday-analyzer/src/models"
)

// Recorder collects analyzer metrics on its own registry.
type Recorder struct {
	registry     *prometheus.Registry
	runsTotal    *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
	winRate      *prometheus.HistogramVec
	runDuration  *prometheus.HistogramVec
	fetchLatency *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
}

// -----------------------------------------------------------------------------

// New creates a recorder with a fresh registry, so several recorders can
// coexist in one process (tests, multiple servers).
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nday_analysis_runs_total",
				Help: "Total number of analysis runs by terminal status",
			},
			[]string{"status"},
		),
		signalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nday_signals_total",
				Help: "Signals seen by the pipeline by stage",
			},
			[]string{"stage"},
		),
		winRate: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nday_win_rate",
				Help:    "Win rate of completed runs by recommended strategy",
				Buckets: []float64{0.1, 0.2, 0.3, 0.45, 0.55, 0.7, 0.8, 0.9, 1},
			},
			[]string{"strategy"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nday_analysis_duration_seconds",
				Help:    "Duration of the analysis pipeline",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"status"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nday_fetch_duration_seconds",
				Help:    "Duration of price series fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nday_fetch_errors_total",
				Help: "Failed price series fetches",
			},
			[]string{"source"},
		),
		cacheEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nday_cache_events_total",
				Help: "Series cache hits and misses",
			},
			[]string{"result"},
		),
	}
}

// -----------------------------------------------------------------------------

// RecordRun records a finished pipeline run.
func (r *Recorder) RecordRun(status string, seconds float64) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.WithLabelValues(status).Observe(seconds)
}

// RecordSignals adds to the signal counter of one pipeline stage
// (detected, unresolved, classified).
func (r *Recorder) RecordSignals(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.signalsTotal.WithLabelValues(stage).Add(float64(n))
}

// RecordWinRate observes the win rate of a completed run. Runs are labelled
// by strategy, never by symbol, so the series count stays fixed.
func (r *Recorder) RecordWinRate(strategy models.EStrategy, rate float64) {
	if r == nil {
		return
	}
	r.winRate.WithLabelValues(string(strategy)).Observe(rate)
}

// RecordFetch records one series fetch.
func (r *Recorder) RecordFetch(source string, seconds float64, err error) {
	if r == nil {
		return
	}
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
	if err != nil {
		r.fetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordCache records a cache lookup.
func (r *Recorder) RecordCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.cacheEvents.WithLabelValues("hit").Inc()
		return
	}
	r.cacheEvents.WithLabelValues("miss").Inc()
}

// -----------------------------------------------------------------------------

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
