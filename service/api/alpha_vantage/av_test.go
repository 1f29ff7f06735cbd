package alpha_vantage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	c "github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
)

const (
	avKeyName = "ALPHAVANTAGE_API_KEY"
)

const dailyAdjusted = `{
	"Meta Data": {
		"1. Information": "Daily Time Series with Splits and Dividend Events",
		"2. Symbol": "IBM",
		"3. Last Refreshed": "2025-10-31",
		"4. Output Size": "Full size",
		"5. Time Zone": "US/Eastern"
	},
	"Time Series (Daily)": {
		"2025-10-31": {"1. open": "307.0", "4. close": "307.41", "5. adjusted close": "305.80", "6. volume": "4000000"},
		"2025-10-29": {"1. open": "310.0", "4. close": "", "5. adjusted close": "", "6. volume": "0"},
		"2025-10-30": {"1. open": "309.0", "4. close": "308.00", "5. adjusted close": "306.39", "6. volume": "3000000"},
		"2024-01-02": {"1. open": "160.0", "4. close": "162.00", "5. adjusted close": "150.00", "6. volume": "3000000"}
	}
}`

type stubConnection struct {
	bodies   map[string]string
	requests []*url.URL
}

func (s *stubConnection) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	s.requests = append(s.requests, endpoint)
	body := s.bodies[endpoint.Query().Get(symbol)]
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
}

func testClient(bodies map[string]string) (*AlphaVantageClient, *stubConnection) {
	conn := &stubConnection{bodies: bodies}
	return &AlphaVantageClient{
		Client:      &c.Client{Connection: conn, ApiKey: "av-test-api-key"},
		MaxParallel: 1,
		now:         func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) },
	}, conn
}

func oct(d int) time.Time { return time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC) }

func Test_DoesNullFloatWorkHowIThink(t *testing.T) {
	var missing null.Float

	if missing.Valid {
		t.Fatalf("expected .valid to be false")
	}

	zero := null.FloatFrom(0)
	if !zero.Valid {
		t.Fatalf("value is set, expected .valid to be true now")
	}

	ex.AssertAreEqual(t, "zero is not missing", false, zero == missing)
}

func Test_AlphaVantage_GetApiKey(t *testing.T) {
	err := godotenv.Load("testenv")
	if err != nil {
		t.Fatalf("error loading environment: %s", err)
	}

	actual := os.Getenv(avKeyName)
	if actual == "" {
		t.Fatalf("error finding key %s in testenv", avKeyName)
	}

	ex.AssertAreEqual(t, "api key", "av-test-api-key", actual)
}

func Test_AlphaVantage_GetStockTimeSeries(t *testing.T) {
	avc, conn := testClient(map[string]string{"IBM": dailyAdjusted})

	res, err := avc.GetStockTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "IBM")
	require.NoError(t, err)

	// meta data
	ex.AssertAreEqual(t, "information", "Daily Time Series with Splits and Dividend Events", res.Metadata.Information.String)
	ex.AssertAreEqual(t, "symbol", "IBM", res.Metadata.Symbol)
	ex.AssertAreEqual(t, "output size", "Full size", res.Metadata.OutputSize.String)
	ex.AssertAreEqual(t, "time zone", "US/Eastern", res.Metadata.TimeZone)

	location, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ex.AssertAreEqual(t, "last refreshed", true, res.Metadata.LastRefreshed.Equal(time.Date(2025, time.October, 31, 0, 0, 0, 0, location)))

	// time series element tieout
	s, err := ex.FilterSingle(res.TimeSeries, func(d *m.TimeSeriesData) bool { return d.Timestamp.Equal(oct(31)) })
	require.NoError(t, err)
	ex.AssertAreEqual(t, "close", 307.41, s.Close.Float64)
	ex.AssertAreEqual(t, "adjusted close", 305.80, s.AdjustedClose.Float64)

	blank, err := ex.FilterSingle(res.TimeSeries, func(d *m.TimeSeriesData) bool { return d.Timestamp.Equal(oct(29)) })
	require.NoError(t, err)
	ex.AssertAreEqual(t, "blank close is missing", false, blank.Close.Valid)

	q := conn.requests[0].Query()
	ex.AssertAreEqual(t, "function", "TIME_SERIES_DAILY_ADJUSTED", q.Get(function))
	ex.AssertAreEqual(t, "output size", defaultOutputSize, q.Get("outputsize"))
	ex.AssertAreEqual(t, "api key", "av-test-api-key", q.Get("apikey"))
}

func Test_AlphaVantage_FetchPricesAppliesWindow(t *testing.T) {
	avc, _ := testClient(map[string]string{"IBM": dailyAdjusted})

	table, err := avc.FetchPrices(context.Background(), m.PriceRequest{Tickers: []string{"IBM"}, Period: "1y", Adjust: true})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{oct(29), oct(30), oct(31)}, table.Index)
	ibm, _ := table.Column("IBM")
	assert.Equal(t, []null.Float{{}, null.FloatFrom(306.39), null.FloatFrom(305.80)}, ibm.Values)

	table, err = avc.FetchPrices(context.Background(), m.PriceRequest{
		Tickers: []string{"IBM"},
		Start:   null.TimeFrom(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
		End:     null.TimeFrom(oct(30)),
	})
	require.NoError(t, err)
	ex.AssertAreEqual(t, "rows", 3, table.Len())
	ibm, _ = table.Column("IBM")
	ex.AssertAreEqual(t, "raw close", 162.0, ibm.Values[0].Float64)
}

func Test_AlphaVantage_ErrorMessageIsEmptySeries(t *testing.T) {
	avc, _ := testClient(map[string]string{
		"NOPE": `{"Error Message": "Invalid API call. Please retry or visit the documentation."}`,
	})

	table, err := avc.FetchPrices(context.Background(), m.PriceRequest{Tickers: []string{"NOPE"}})
	require.NoError(t, err)
	ex.AssertAreEqual(t, "rows", 0, table.Len())
}

func Test_AlphaVantage_ThrottledIsAnError(t *testing.T) {
	avc, _ := testClient(map[string]string{
		"IBM": `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
	})

	_, err := avc.FetchPrices(context.Background(), m.PriceRequest{Tickers: []string{"IBM"}})
	assert.ErrorIs(t, err, ErrThrottled)
}

func Test_AlphaVantage_IntradayIsUnsupported(t *testing.T) {
	avc, _ := testClient(nil)

	_, err := avc.FetchPrices(context.Background(), m.PriceRequest{Tickers: []string{"IBM"}, Interval: "5m"})
	assert.Error(t, err)
}
