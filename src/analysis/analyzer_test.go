package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nday-analyzer/src/helpers"
	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"
)

type fakeSource struct {
	mu     sync.Mutex
	series map[string]models.MPriceSeries
	fails  int
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchDailySeries(_ context.Context, symbol string, start time.Time) (models.MPriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fails > 0 {
		f.fails--
		return models.MPriceSeries{}, errors.New("truncated payload")
	}
	s, ok := f.series[symbol]
	if !ok {
		return models.MPriceSeries{}, fmt.Errorf("symbol %s not found", symbol)
	}
	return s.TruncateBefore(start), nil
}

type fakeLookup struct{ src interfaces.ISeriesSource }

func (l fakeLookup) GetSource(name string) (interfaces.ISeriesSource, error) {
	if name != "" && name != l.src.Name() {
		return nil, fmt.Errorf("source %q not found", name)
	}
	return l.src, nil
}

type memoryDB struct {
	mu   sync.Mutex
	runs []models.MAnalysisRun
}

func (m *memoryDB) Initialize() error { return nil }
func (m *memoryDB) SaveAnalysisRun(run *models.MAnalysisRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}
func (m *memoryDB) GetAnalysisRun(string) (*models.MAnalysisRun, error) { return nil, nil }
func (m *memoryDB) ListAnalysisRuns(string, int) ([]models.MAnalysisRun, error) {
	return m.runs, nil
}
func (m *memoryDB) CleanupOldData() error { return nil }
func (m *memoryDB) Close() error          { return nil }

type recordingExchanger struct {
	mu   sync.Mutex
	runs []*models.MAnalysisRun
}

func (r *recordingExchanger) PublishRun(run *models.MAnalysisRun) {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
}
func (r *recordingExchanger) Start() error { return nil }
func (r *recordingExchanger) Stop() error  { return nil }

func newTestAnalyzer(src *fakeSource) (*Analyzer, *memoryDB, *recordingExchanger) {
	db := &memoryDB{}
	ex := &recordingExchanger{}
	cfg := &models.MConfig{Analysis: models.MAnalysisConfig{MaxConcurrency: 2}}
	a := NewAnalyzer(cfg, fakeLookup{src: src}, db, ex, metrics.New(), logger.NewLogger(nil, "AnalyzerTest"))
	a.RetryDelay = time.Millisecond
	a.Facade.CalendarFor = nil
	var ids atomic.Int64
	a.newID = func() string { return fmt.Sprintf("run-%d", ids.Add(1)) }
	return a, db, ex
}

func TestAnalyze_DefaultsAndPersistence(t *testing.T) {
	src := &fakeSource{series: map[string]models.MPriceSeries{
		"AAPL": series("2024-01-01", 100, 98, 97, 99, 95, 94, 96, 97),
	}}
	a, db, ex := newTestAnalyzer(src)

	run, err := a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: " aapl ", StartDate: "2024-01-01"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "fake", run.Source)
	assert.Equal(t, "AAPL", run.Result.Symbol)
	assert.Equal(t, 1.0, run.Result.Params.DropThresholdPct)
	assert.Equal(t, 3, run.Result.Params.DaysAfter)
	assert.Equal(t, models.StatusCompleted, run.Result.Status)
	require.Len(t, db.runs, 1)
	require.Len(t, ex.runs, 1)
	assert.Same(t, run, ex.runs[0])
}

func TestAnalyze_PersistOptOut(t *testing.T) {
	src := &fakeSource{series: map[string]models.MPriceSeries{"AAPL": series("2024-01-01", 100, 101)}}
	a, db, _ := newTestAnalyzer(src)
	no := false

	run, err := a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "AAPL", Persist: &no})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoSignals, run.Result.Status)
	assert.Empty(t, db.runs)
}

func TestAnalyze_ConfiguredDefaults(t *testing.T) {
	src := &fakeSource{series: map[string]models.MPriceSeries{
		"AAPL": series("2024-01-01", 100, 98, 97, 99, 95, 94, 96, 97),
	}}
	a, _, _ := newTestAnalyzer(src)
	a.Config.Analysis.Defaults = models.MAnalysisParams{DropThresholdPct: 2.5, DaysAfter: 5, RecentLimit: 10}

	run, err := a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "AAPL", StartDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, run.Result.Params.DropThresholdPct)
	assert.Equal(t, 5, run.Result.Params.DaysAfter)
	assert.Equal(t, 10, run.Result.Params.RecentLimit)

	run, err = a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "AAPL", StartDate: "2024-01-01", DaysAfter: helpers.Ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Result.Params.DaysAfter)
	assert.Equal(t, 2.5, run.Result.Params.DropThresholdPct)
}

func TestAnalyze_ValidationBeforeFetch(t *testing.T) {
	src := &fakeSource{}
	a, _, _ := newTestAnalyzer(src)

	_, err := a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "AAPL", DropThresholdPct: helpers.Ptr(-1.0)})
	var vErr *helpers.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "drop_threshold_pct", vErr.Field)

	explicitZero := []struct {
		field string
		req   models.MAnalysisRequest
	}{
		{"days_after", models.MAnalysisRequest{Symbol: "AAPL", DaysAfter: helpers.Ptr(0)}},
		{"drop_threshold_pct", models.MAnalysisRequest{Symbol: "AAPL", DropThresholdPct: helpers.Ptr(0.0)}},
		{"recent_limit", models.MAnalysisRequest{Symbol: "AAPL", RecentLimit: helpers.Ptr(0)}},
	}
	for _, tc := range explicitZero {
		run, err := a.Analyze(context.Background(), tc.req)
		assert.Nil(t, run, tc.field)
		require.True(t, errors.As(err, &vErr), tc.field)
		assert.Equal(t, tc.field, vErr.Field)
	}

	_, err = a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "AAPL", Source: "other"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "source", vErr.Field)

	assert.Equal(t, 0, src.calls)
}

func TestAnalyze_FetchRetryAndFailure(t *testing.T) {
	src := &fakeSource{fails: 1, series: map[string]models.MPriceSeries{"AAPL": series("2024-01-01", 100, 98, 99)}}
	a, _, _ := newTestAnalyzer(src)

	_, err := a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "AAPL", StartDate: "2024-01-01", DaysAfter: helpers.Ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	_, err = a.Analyze(context.Background(), models.MAnalysisRequest{Symbol: "MSFT"})
	var dsErr *helpers.DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, 3, src.calls, "not found is not retried")
}

func TestAnalyzeBatch(t *testing.T) {
	src := &fakeSource{series: map[string]models.MPriceSeries{
		"AAPL": series("2024-01-01", 100, 98, 97, 99, 95, 94, 96, 97),
		"MSFT": series("2024-01-01", 100, 101, 102),
	}}
	a, db, _ := newTestAnalyzer(src)

	items, err := a.AnalyzeBatch(context.Background(), []models.MAnalysisRequest{
		{Symbol: "AAPL", StartDate: "2024-01-01"},
		{Symbol: "MSFT", StartDate: "2024-01-01"},
		{Symbol: "NOPE", StartDate: "2024-01-01"},
		{Symbol: ""},
	})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, models.StatusCompleted, items[0].Run.Result.Status)
	assert.Equal(t, models.StatusNoSignals, items[1].Run.Result.Status)
	assert.Nil(t, items[2].Run)
	assert.Contains(t, items[2].Error, "NOPE")
	assert.NotEmpty(t, items[3].Error)
	assert.Len(t, db.runs, 2)

	_, err = a.AnalyzeBatch(context.Background(), nil)
	assert.Error(t, err)
}
