package alpha_vantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	e "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	c "github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
)

// public
const (
	HostDefault = "www.alphavantage.co"
)

// private
const (
	// default query parameters
	defaultOutputSize = "full"
	defaultDataType   = "json"

	// api request elements
	query    = "query"
	symbol   = "symbol"
	function = "function"

	// response keys
	metaDataKey     = "Meta Data"
	errorMessageKey = "Error Message"
	noteKey         = "Note"
	informationKey  = "Information"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	// ErrThrottled is returned when the api answers with a usage note instead of data.
	ErrThrottled = errors.New("alpha vantage request limit reached")
)

type AlphaVantageClient struct {
	*c.Client
	MaxParallel int

	now func() time.Time
}

func GetClient(apiKey string, options c.ClientOptions, maxParallel int) *AlphaVantageClient {
	return &AlphaVantageClient{
		Client:      c.ClientFactory(HostDefault, apiKey, options),
		MaxParallel: maxParallel,
		now:         time.Now,
	}
}

// FetchPrices downloads every requested ticker and aligns the closes into one table.
// The api has no date window, so Start/End/Period are applied to the response.
func (avc *AlphaVantageClient) FetchPrices(ctx context.Context, req m.PriceRequest) (*m.Table, error) {
	interval, err := c.ParseTimeInterval(req.Interval)
	if err != nil {
		return nil, err
	}
	timeSeries, err := FromInterval(interval)
	if err != nil {
		return nil, err
	}
	if err := c.ValidatePeriod(req.Period); err != nil {
		return nil, err
	}

	window := req
	if !window.Start.Valid && !window.End.Valid {
		window.Start = c.PeriodStart(req.Period, avc.now())
	}

	return c.FetchAll(ctx, req.Tickers, avc.MaxParallel, func(ctx context.Context, ticker string) (*m.Series, error) {
		res, err := avc.GetStockTimeSeries(ctx, timeSeries, ticker)
		if err != nil {
			return nil, err
		}
		return toSeries(ticker, res, window), nil
	})
}

// https://www.alphavantage.co/documentation/#dailyadj
func (avc *AlphaVantageClient) GetStockTimeSeries(ctx context.Context, timeSeries TimeSeries, ticker string) (*m.TimeSeriesResult, error) {
	if avc == nil {
		panic("alpha vantage client has not been set.")
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function: timeSeries.Function(),
		symbol:   ticker,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	if msg, ok := stringField(raw, errorMessageKey); ok {
		log.Warn().Str("ticker", ticker).Str("reason", msg).Msg("no price data returned")
		return &m.TimeSeriesResult{}, nil
	}
	if _, ok := raw[metaDataKey]; !ok {
		for _, key := range []string{noteKey, informationKey} {
			if msg, ok := stringField(raw, key); ok {
				return nil, fmt.Errorf("%w: %s", ErrThrottled, msg)
			}
		}
		return nil, fmt.Errorf("response for %s has no meta data", ticker)
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	timeSeriesData, err := parseTimeSeriesDataResult(raw, timeSeries.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	return &m.TimeSeriesResult{
		Metadata:   metaData,
		TimeSeries: timeSeriesData,
	}, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	// build our URL
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set("apikey", avc.Client.ApiKey)
	query.Set("datatype", defaultDataType)
	query.Set("outputsize", defaultOutputSize)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

// toSeries keeps the rows inside the request window, oldest first.
func toSeries(ticker string, res *m.TimeSeriesResult, req m.PriceRequest) *m.Series {
	rows := e.FilterMultiple(res.TimeSeries, func(d *m.TimeSeriesData) bool { return req.Contains(d.Timestamp) })
	slices.SortFunc(rows, func(a, b *m.TimeSeriesData) int { return a.Timestamp.Compare(b.Timestamp) })

	series := &m.Series{
		Name:   ticker,
		Index:  make([]time.Time, len(rows)),
		Values: make([]null.Float, len(rows)),
	}
	for i, row := range rows {
		series.Index[i] = row.Timestamp
		series.Values[i] = row.Close
		if req.Adjust {
			series.Values[i] = row.AdjustedClose
		}
	}
	return series
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

func stringField(raw map[string]json.RawMessage, key string) (string, bool) {
	msg, ok := raw[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return string(msg), true
	}
	return s, true
}

func parseMetaData(raw map[string]json.RawMessage) (*m.TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw[metaDataKey], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))

	// parse symbol
	sf := func(s string) bool { return strings.HasSuffix(s, ". Symbol") }
	symbolKey, err := e.FilterSingle(metaDataKeys, sf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	// parse time zone
	tzf := func(s string) bool { return strings.HasSuffix(s, ". Time Zone") }
	timeZoneKey, err := e.FilterSingle(metaDataKeys, tzf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey])
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	// parse last refreshed
	lrf := func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") }
	lastRefreshedKey, err := e.FilterSingle(metaDataKeys, lrf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	res := m.TimeSeriesMetadata{
		Information:   optionalField(metadataElements, metaDataKeys, ". Information"),
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
		OutputSize:    optionalField(metadataElements, metaDataKeys, ". Output Size"),
		TimeZone:      metadataElements[timeZoneKey],
	}

	return &res, timeZone, nil
}

func optionalField(elements map[string]string, keys []string, suffix string) null.String {
	key, err := e.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, suffix) })
	if err != nil {
		return null.String{}
	}
	return null.StringFrom(elements[key])
}

// parseTimeSeriesDataResult reads the dated rows. Dates carry no time of day,
// they are kept as midnight UTC of the exchange date.
func parseTimeSeriesDataResult(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.TimeSeriesData, error) {
	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	// populate the lookups
	var firstValue map[string]string
	for _, v := range timeSeriesElements {
		firstValue = v
		break
	}
	valueKeys := slices.Collect(maps.Keys(firstValue))

	cf := func(s string) bool { return strings.HasSuffix(s, ". close") && !strings.Contains(s, "adjusted") }
	closeKey, err := e.FilterSingle(valueKeys, cf)
	if err != nil && len(timeSeriesElements) > 0 {
		return nil, fmt.Errorf("error extracting close key for time series. Available headers: %v", valueKeys)
	}

	// parse adjusted close key in raw json lookup
	acf := func(s string) bool { return strings.HasSuffix(s, ". adjusted close") }
	adjustedCloseKey, err := e.FilterSingle(valueKeys, acf)
	if err != nil && len(timeSeriesElements) > 0 {
		return nil, fmt.Errorf("error extracting adjusted close key for time series")
	}

	timeSeries := make([]*m.TimeSeriesData, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		// get timestamp
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		timeSeries = append(timeSeries, &m.TimeSeriesData{
			Timestamp:     time.Date(timestamp.Year(), timestamp.Month(), timestamp.Day(), 0, 0, 0, 0, time.UTC),
			Close:         parseFloat(timeSeriesValue[closeKey]),
			AdjustedClose: parseFloat(timeSeriesValue[adjustedCloseKey]),
		})
	}

	return timeSeries, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		log.Debug().Str("time_zone", location).Msg("default time zone hit, falling back to UTC")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)

	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

// parseFloat leaves unparseable or empty values missing rather than zero.
func parseFloat(val string) null.Float {
	if val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return null.FloatFrom(f)
		}
	}
	return null.Float{}
}
