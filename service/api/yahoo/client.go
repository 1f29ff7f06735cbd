package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
)

// public
const (
	HostDefault = "query1.finance.yahoo.com"
)

// private
const (
	chartPath = "/v8/finance/chart/"

	rangeParam     = "range"
	intervalParam  = "interval"
	period1Param   = "period1"
	period2Param   = "period2"
	eventsParam    = "events"
	adjCloseParam  = "includeAdjustedClose"
	defaultEvents  = "div,splits"
	notFoundCode   = "Not Found"
	maxBodyToError = 512
)

type YahooClient struct {
	*api.Client
	MaxParallel int

	now func() time.Time
}

func GetClient(options api.ClientOptions, maxParallel int) *YahooClient {
	return &YahooClient{
		Client:      api.ClientFactory(HostDefault, "", options),
		MaxParallel: maxParallel,
		now:         time.Now,
	}
}

// FetchPrices downloads the close of every requested ticker and aligns them
// into one table. Tickers Yahoo does not know come back as empty columns.
func (yc *YahooClient) FetchPrices(ctx context.Context, req m.PriceRequest) (*m.Table, error) {
	interval, err := api.ParseTimeInterval(req.Interval)
	if err != nil {
		return nil, err
	}
	if err := api.ValidatePeriod(req.Period); err != nil {
		return nil, err
	}

	return api.FetchAll(ctx, req.Tickers, yc.MaxParallel, func(ctx context.Context, ticker string) (*m.Series, error) {
		return yc.GetChart(ctx, ticker, req, interval)
	})
}

// GetChart downloads a single ticker.
func (yc *YahooClient) GetChart(ctx context.Context, ticker string, req m.PriceRequest, interval api.TimeInterval) (*m.Series, error) {
	if yc == nil {
		panic("yahoo client has not been set.")
	}

	endpoint := yc.buildRequestPath(ticker, req, interval)

	response, err := yc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d for %s: %s", response.StatusCode, ticker, truncate(body))
		}
		return nil, fmt.Errorf("error unmarshaling chart response: %w", err)
	}

	if e := chart.Chart.Error; e != nil {
		if e.Code == notFoundCode || response.StatusCode == http.StatusNotFound {
			log.Warn().Str("ticker", ticker).Str("reason", e.Description).Msg("no price data returned")
			return &m.Series{Name: ticker}, nil
		}
		return nil, fmt.Errorf("chart error for %s: %s (%s)", ticker, e.Description, e.Code)
	}
	if len(chart.Chart.Result) == 0 {
		log.Warn().Str("ticker", ticker).Msg("no price data returned")
		return &m.Series{Name: ticker}, nil
	}

	return parseChartResult(ticker, &chart.Chart.Result[0], interval, req.Adjust)
}

func (yc *YahooClient) buildRequestPath(ticker string, req m.PriceRequest, interval api.TimeInterval) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = chartPath + ticker

	query := endpoint.Query()
	query.Set(intervalParam, interval.Interval())
	query.Set(eventsParam, defaultEvents)
	query.Set(adjCloseParam, strconv.FormatBool(req.Adjust))

	// explicit dates win over a lookback period
	if req.Start.Valid || req.End.Valid {
		start := int64(0)
		if req.Start.Valid {
			start = req.Start.Time.Unix()
		}
		end := yc.now().Unix()
		if req.End.Valid {
			end = req.End.Time.Unix()
		}
		query.Set(period1Param, strconv.FormatInt(start, 10))
		query.Set(period2Param, strconv.FormatInt(end, 10))
	} else {
		period := req.Period
		if period == "" {
			period = m.PeriodMax
		}
		query.Set(rangeParam, period)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseChartResult(ticker string, result *chartResult, interval api.TimeInterval, adjusted bool) (*m.Series, error) {
	closes := result.closes(adjusted)
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("chart for %s has %d timestamps but %d closes", ticker, len(result.Timestamp), len(closes))
	}

	location := result.location()
	series := &m.Series{
		Name:   ticker,
		Index:  make([]time.Time, 0, len(closes)),
		Values: make([]null.Float, 0, len(closes)),
	}

	seen := make(map[time.Time]struct{}, len(closes))
	for i, unix := range result.Timestamp {
		ts := normalizeTimestamp(time.Unix(unix, 0), location, interval)
		// yahoo repeats the live bar at the end of a daily range
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}
		series.Index = append(series.Index, ts)
		series.Values = append(series.Values, closes[i])
	}

	return series, nil
}

// normalizeTimestamp maps daily and coarser bars to midnight UTC of the
// exchange local trading date so tickers from different exchanges line up.
func normalizeTimestamp(ts time.Time, location *time.Location, interval api.TimeInterval) time.Time {
	if interval.IsIntraday() {
		return ts.UTC()
	}
	local := ts.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(body []byte) string {
	if len(body) > maxBodyToError {
		return string(body[:maxBodyToError])
	}
	return string(body)
}
