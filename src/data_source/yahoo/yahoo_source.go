package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
)

// YahooFinanceSource reads daily closes from the v8 chart endpoint.
type YahooFinanceSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	now          func() time.Time
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *YahooFinanceSource {
	return &YahooFinanceSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(nil, "YahooFinanceSource-"+sourceCfg.Name),
		now:          time.Now,
	}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// FetchDailySeries downloads the daily chart of symbol from start to now.
func (s *YahooFinanceSource) FetchDailySeries(ctx context.Context, symbol string, start time.Time) (models.MPriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.MPriceSeries{}, fmt.Errorf("empty symbol")
	}

	baseURL := strings.TrimRight(s.SourceConfig.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s", baseURL, url.PathEscape(symbol))

	period1 := int64(0)
	if !start.IsZero() {
		period1 = start.Unix()
	}
	params := map[string]string{
		"interval":       "1d",
		"period1":        strconv.FormatInt(period1, 10),
		"period2":        strconv.FormatInt(s.now().Unix(), 10),
		"includePrePost": "false",
		"events":         "div,splits",
	}

	respBytes, err := s.Network.Get(ctx, chartURL, params)
	if err != nil {
		return models.MPriceSeries{}, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	series, err := s.parseChartResponse(symbol, respBytes)
	if err != nil {
		return models.MPriceSeries{}, err
	}

	if !start.IsZero() {
		series = series.TruncateBefore(models.CalendarDay(start))
	}
	s.Logger.Debug("Fetched %d daily bars for %s", series.Len(), symbol)
	return series, nil
}

// -----------------------------------------------------------------------------

type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string `json:"currency"`
				Symbol               string `json:"symbol"`
				ExchangeName         string `json:"exchangeName"`
				InstrumentType       string `json:"instrumentType"`
				Gmtoffset            int    `json:"gmtoffset"`
				Timezone             string `json:"timezone"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				DataGranularity      string `json:"dataGranularity"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote    []chartQuote    `json:"quote"`
				AdjClose []chartAdjClose `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartQuote struct {
	Close []*float64 `json:"close"` // null on halted days
}

type chartAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

// -----------------------------------------------------------------------------

// parseChartResponse turns a chart payload into an ascending series of
// exchange-local calendar days. Null and non-positive closes are skipped and
// a repeated day keeps its last bar.
func (s *YahooFinanceSource) parseChartResponse(symbol string, data []byte) (models.MPriceSeries, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.MPriceSeries{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return models.MPriceSeries{}, fmt.Errorf("yahoo api error for %s: %s - %s (not found)", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return models.MPriceSeries{}, fmt.Errorf("no data in response for %s", symbol)
	}

	result := resp.Chart.Result[0]
	meta := result.Meta
	series := models.MPriceSeries{
		Symbol:   symbol,
		Currency: meta.Currency,
		Exchange: meta.ExchangeName,
	}
	if len(result.Timestamp) == 0 {
		return series, nil
	}

	closes, err := s.selectCloses(symbol, result.Indicators.Quote, result.Indicators.AdjClose, len(result.Timestamp))
	if err != nil {
		return models.MPriceSeries{}, err
	}

	loc := exchangeLocation(meta.ExchangeTimezoneName, meta.Gmtoffset)

	byDay := make(map[time.Time]float64, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue
		}
		closeVal := *closes[i]
		if closeVal <= 0 {
			s.Logger.Debug("Skipping invalid close for %s at index %d: %f", symbol, i, closeVal)
			continue
		}
		day := models.CalendarDay(time.Unix(ts, 0).In(loc))
		byDay[day] = closeVal
	}

	series.Points = make([]models.MPricePoint, 0, len(byDay))
	for day, closeVal := range byDay {
		series.Points = append(series.Points, models.MPricePoint{Date: day, Close: closeVal})
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})

	return series, nil
}

// -----------------------------------------------------------------------------

// selectCloses picks adjusted closes unless the source is configured for raw
// closes or the adjusted series is missing.
func (s *YahooFinanceSource) selectCloses(symbol string, quote []chartQuote, adj []chartAdjClose, n int) ([]*float64, error) {
	if s.SourceConfig.PriceField != "close" && len(adj) > 0 && len(adj[0].AdjClose) == n {
		return adj[0].AdjClose, nil
	}
	if len(quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}
	if len(quote[0].Close) != n {
		s.Logger.Warning("Data alignment error for %s: %d timestamps, %d closes", symbol, n, len(quote[0].Close))
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}
	return quote[0].Close, nil
}

// -----------------------------------------------------------------------------

// exchangeLocation resolves the exchange time zone, falling back to the
// fixed GMT offset reported alongside it.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if gmtOffset != 0 {
		return time.FixedZone("exchange", gmtOffset)
	}
	return time.UTC
}
