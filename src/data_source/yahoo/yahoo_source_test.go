package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
	"nday-analyzer/src/network"
)

type fakeNetwork struct {
	body   []byte
	err    error
	url    string
	params map[string]string
}

func (f *fakeNetwork) Get(_ context.Context, url string, params map[string]string) ([]byte, error) {
	f.url = url
	f.params = params
	return f.body, f.err
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/chart_aapl.json")
	require.NoError(t, err)
	return b
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func newSource(net *fakeNetwork, field string) *YahooFinanceSource {
	src := NewYahooFinanceSource(models.MSourceConfig{
		Name:       "yahoo",
		BaseURL:    "https://example.test/",
		PriceField: field,
	}, net)
	src.now = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }
	return src
}

func TestFetchDailySeries_Adjusted(t *testing.T) {
	net := &fakeNetwork{body: loadFixture(t)}
	src := newSource(net, "adjclose")

	series, err := src.FetchDailySeries(context.Background(), " aapl ", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/v8/finance/chart/AAPL", net.url)
	assert.Equal(t, "1d", net.params["interval"])
	assert.Equal(t, "0", net.params["period1"])
	assert.Equal(t, "1704844800", net.params["period2"])

	assert.Equal(t, "AAPL", series.Symbol)
	assert.Equal(t, "USD", series.Currency)
	require.Equal(t, []models.MPricePoint{
		{Date: day("2024-01-02"), Close: 184.64},
		{Date: day("2024-01-03"), Close: 183.25},
		{Date: day("2024-01-04"), Close: 180.91},
		{Date: day("2024-01-05"), Close: 180.18},
		{Date: day("2024-01-09"), Close: 184.20},
	}, series.Points)
}

func TestFetchDailySeries_RawCloseAndStart(t *testing.T) {
	net := &fakeNetwork{body: loadFixture(t)}
	src := newSource(net, "close")

	start := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	series, err := src.FetchDailySeries(context.Background(), "AAPL", start)
	require.NoError(t, err)

	assert.Equal(t, "1704326400", net.params["period1"])
	require.Len(t, series.Points, 3)
	assert.Equal(t, day("2024-01-04"), series.Points[0].Date)
	assert.Equal(t, 181.91, series.Points[0].Close)
	assert.Equal(t, 185.20, series.Points[2].Close)
}

func TestFetchDailySeries_Errors(t *testing.T) {
	src := newSource(&fakeNetwork{body: []byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)}, "")
	_, err := src.FetchDailySeries(context.Background(), "NOPE", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")

	src = newSource(&fakeNetwork{err: errors.New("dial tcp: timeout")}, "")
	_, err = src.FetchDailySeries(context.Background(), "AAPL", time.Time{})
	assert.ErrorContains(t, err, "network error for AAPL")

	src = newSource(&fakeNetwork{body: []byte(`not json`)}, "")
	_, err = src.FetchDailySeries(context.Background(), "AAPL", time.Time{})
	assert.Error(t, err)

	_, err = src.FetchDailySeries(context.Background(), "  ", time.Time{})
	assert.Error(t, err)
}

func TestFetchDailySeries_EmptyChart(t *testing.T) {
	src := newSource(&fakeNetwork{body: []byte(`{"chart":{"result":[{"meta":{"currency":"USD"},"indicators":{"quote":[{}]}}],"error":null}}`)}, "")
	series, err := src.FetchDailySeries(context.Background(), "NEW", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, series.Points)
}

func TestFetchDailySeries_OverHTTP(t *testing.T) {
	fixture := loadFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 5, RequestsPerSecond: 100, ConcurrentRequests: 1}}
	nm := network.NewAsyncNetworkManager(cfg, logger.NewLogger(nil, "NetworkTest"))
	src := NewYahooFinanceSource(models.MSourceConfig{Name: "yahoo", BaseURL: srv.URL, PriceField: "adjclose"}, nm)

	series, err := src.FetchDailySeries(context.Background(), "AAPL", time.Time{})
	require.NoError(t, err)
	assert.Len(t, series.Points, 5)
}
