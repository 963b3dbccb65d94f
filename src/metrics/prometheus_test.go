package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nday-analyzer/src/models"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.RecordRun("completed", 0.01)
	r.RecordRun("completed", 0.02)
	r.RecordRun("no_signals", 0.01)
	r.RecordSignals("detected", 5)
	r.RecordSignals("detected", 0)
	r.RecordFetch("yahoo", 0.2, errors.New("boom"))
	r.RecordCache(true)
	r.RecordCache(false)
	r.RecordCache(false)

	body := scrape(t, r)
	assert.Contains(t, body, `nday_analysis_runs_total{status="completed"} 2`)
	assert.Contains(t, body, `nday_analysis_runs_total{status="no_signals"} 1`)
	assert.Contains(t, body, `nday_signals_total{stage="detected"} 5`)
	assert.Contains(t, body, `nday_fetch_errors_total{source="yahoo"} 1`)
	assert.Contains(t, body, `nday_cache_events_total{result="hit"} 1`)
	assert.Contains(t, body, `nday_cache_events_total{result="miss"} 2`)
}

func TestRecorder_WinRateByStrategy(t *testing.T) {
	r := New()

	r.RecordWinRate(models.StrategySellImmediately, 0.75)
	r.RecordWinRate(models.StrategySellImmediately, 0.6)
	r.RecordWinRate(models.StrategyWait, 0.2)

	body := scrape(t, r)
	assert.Contains(t, body, `nday_win_rate_count{strategy="sell_immediately"} 2`)
	assert.Contains(t, body, `nday_win_rate_count{strategy="wait"} 1`)
	assert.Contains(t, body, `nday_win_rate_bucket{strategy="wait",le="0.2"} 1`)
	assert.NotContains(t, body, "symbol=")
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordRun("completed", 1)
		r.RecordSignals("detected", 1)
		r.RecordWinRate(models.StrategyNeutral, 0.5)
		r.RecordFetch("yahoo", 1, nil)
		r.RecordCache(true)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordRun("completed", 0.01)

	assert.Contains(t, scrape(t, r), `nday_analysis_runs_total{status="completed"} 1`)
}

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
