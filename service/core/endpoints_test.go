package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	"github.com/ImSeekingAlpha/Quant-trading-journey/data/repos"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/config"
	sm "github.com/ImSeekingAlpha/Quant-trading-journey/service/models"
)

const twoDays = `"index":["2024-01-01T00:00:00Z","2024-01-02T00:00:00Z"]`

func testServer(source *stubSource, store SnapshotStore) *httptest.Server {
	sc := &ServiceContext{
		Config:    &config.Config{PeriodsPerYear: 252, RiskFreeTicker: DefaultRiskFreeTicker},
		Retriever: &Retriever{Source: source, Store: store},
	}
	return httptest.NewServer(NewRouter(sc))
}

func decode[T any](t *testing.T, res *http.Response) sm.ServiceResponse[T] {
	t.Helper()
	defer res.Body.Close()

	var body sm.ServiceResponse[T]
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return res
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	return res
}

func Test_Endpoints_Ping(t *testing.T) {
	srv := testServer(&stubSource{}, nil)
	defer srv.Close()

	res := get(t, srv.URL+"/api/ping")
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)
}

func Test_Endpoints_GetPricesSingleTicker(t *testing.T) {
	source := &stubSource{table: tableOf(series("AAPL", 1, 2, 3))}
	srv := testServer(source, nil)
	defer srv.Close()

	res := get(t, srv.URL+"/api/prices?tickers=aapl&interval=1wk&adjust=false")
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)

	body := decode[sm.PricesResponse](t, res)
	require.NotNil(t, body.Data)
	require.NotNil(t, body.Data.Series)
	ex.AssertAreEqual(t, "series name", "AAPL", body.Data.Series.Name)
	assert.Equal(t, []string{"AAPL"}, body.Data.Table.Columns)

	req := source.requests[0]
	ex.AssertAreEqual(t, "interval", "1wk", req.Interval)
	ex.AssertAreEqual(t, "adjust", false, req.Adjust)
	ex.AssertAreEqual(t, "period", m.PeriodMax, req.Period)
}

func Test_Endpoints_GetPricesPersists(t *testing.T) {
	store := newStubStore()
	srv := testServer(&stubSource{table: tableOf(series("AAPL", 1, 2))}, store)
	defer srv.Close()

	res := get(t, srv.URL+"/api/prices?tickers=AAPL&period=1y&persist=true")
	body := decode[sm.PricesResponse](t, res)
	ex.AssertAreEqual(t, "saved to", "stub/AAPL_1y_1d.gob", body.Data.SavedTo)

	res = get(t, srv.URL+"/api/snapshots/AAPL_1y_1d.gob")
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)
	snapshot := decode[sm.PricesResponse](t, res)
	ex.AssertAreEqual(t, "rows", 2, snapshot.Data.Table.Len())
}

func Test_Endpoints_SnapshotNamesStayInDataDir(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	source := &stubSource{table: tableOf(series("AAPL", 1, 2))}
	srv := testServer(source, repos.NewFileStore(dataDir))
	defer srv.Close()

	abs := filepath.Join(root, "abs.gob")
	for _, name := range []string{"../escaped.gob", abs, `..\escaped.gob`, "nested/x.gob", ".."} {
		res := get(t, srv.URL+"/api/prices?tickers=AAPL&persist=true&name="+url.QueryEscape(name))
		ex.AssertAreEqual(t, "status for "+name, http.StatusBadRequest, res.StatusCode)
		res.Body.Close()
	}

	// tickers end up in the derived name
	res := get(t, srv.URL+"/api/prices?persist=true&tickers="+url.QueryEscape("../X"))
	ex.AssertAreEqual(t, "status for derived name", http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	res = get(t, srv.URL+"/api/snapshots/..%2Fescaped.gob")
	ex.AssertAreEqual(t, "status for snapshot load", http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	assert.Empty(t, source.requests)
	for _, path := range []string{filepath.Join(root, "escaped.gob"), abs} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "%s should not have been written", path)
	}

	res = get(t, srv.URL+"/api/prices?tickers=AAPL&persist=true&name=mine.gob")
	ex.AssertAreEqual(t, "status for plain name", http.StatusOK, res.StatusCode)
	body := decode[sm.PricesResponse](t, res)
	ex.AssertAreEqual(t, "saved to", filepath.Join(dataDir, "mine.gob"), body.Data.SavedTo)
}

func Test_Endpoints_GetPricesErrors(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		source *stubSource
		status int
	}{
		{"no data", "tickers=ZZZZ", &stubSource{table: &m.Table{}}, http.StatusNotFound},
		{"no tickers", "tickers=", &stubSource{}, http.StatusBadRequest},
		{"bad interval", "tickers=AAPL&interval=2h", &stubSource{}, http.StatusBadRequest},
		{"bad period", "tickers=AAPL&period=3w", &stubSource{}, http.StatusBadRequest},
		{"bad date", "tickers=AAPL&start=01/02/2024", &stubSource{}, http.StatusBadRequest},
		{"bad bool", "tickers=AAPL&adjust=maybe", &stubSource{}, http.StatusBadRequest},
		{"provider failure", "tickers=AAPL", &stubSource{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := testServer(c.source, nil)
			defer srv.Close()

			res := get(t, srv.URL+"/api/prices?"+c.query)
			ex.AssertAreEqual(t, "status", c.status, res.StatusCode)
			body := decode[any](t, res)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func Test_Endpoints_PostGaps(t *testing.T) {
	srv := testServer(&stubSource{}, nil)
	defer srv.Close()

	res := post(t, srv.URL+"/api/gaps", `{"table":{`+twoDays+`,"columns":["A","B"],"data":{"A":[null,1],"B":[1,2]}}}`)
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)

	body := decode[sm.GapsResponse](t, res)
	require.Len(t, body.Data.Report, 1)
	row := body.Data.Report[0]
	ex.AssertAreEqual(t, "ticker", "A", row.Ticker)
	ex.AssertAreEqual(t, "leading", 1, row.Leading)
	ex.AssertAreEqual(t, "quality", m.QualityDrop, row.Quality)
}

func Test_Endpoints_PostGapsRejectsBadTables(t *testing.T) {
	srv := testServer(&stubSource{}, nil)
	defer srv.Close()

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"table":{` + twoDays + `,"columns":["A"],"data":{"A":[1]}}}`,
	} {
		res := post(t, srv.URL+"/api/gaps", body)
		ex.AssertAreEqual(t, "status for "+body, http.StatusBadRequest, res.StatusCode)
		res.Body.Close()
	}
}

func Test_Endpoints_PostPerformance(t *testing.T) {
	srv := testServer(&stubSource{err: errors.New("unused")}, nil)
	defer srv.Close()

	res := post(t, srv.URL+"/api/performance",
		`{"returns":{`+twoDays+`,"columns":["A"],"data":{"A":[0.1,0.1]}},"riskFreeRate":0,"periodsPerYear":2}`)
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)

	body := decode[sm.PerformanceResponse](t, res)
	ex.AssertAreEqual(t, "periods per year", 2, body.Data.PeriodsPerYear)
	require.Len(t, body.Data.CAGR, 1)
	ex.AssertAlmostEqual(t, "cagr", 0.21, body.Data.CAGR[0].Value.Float64, tolerance)
	require.Len(t, body.Data.Sharpe, 1)
	// constant returns have no volatility
	ex.AssertAreEqual(t, "sharpe valid", false, body.Data.Sharpe[0].Value.Valid)
}

func Test_Endpoints_PostPerformanceErrors(t *testing.T) {
	returns := `"returns":{` + twoDays + `,"columns":["A"],"data":{"A":[0.1,0.2]}}`

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"missing returns", `{}`, http.StatusBadRequest},
		{"empty column", `{"returns":{` + twoDays + `,"columns":["A"],"data":{"A":[null,null]}},"riskFreeRate":0}`, http.StatusUnprocessableEntity},
		{"rate and series", `{` + returns + `,"riskFreeRate":0,"riskFreeSeries":{` + twoDays + `,"columns":["RF"],"data":{"RF":[0.01,0.01]}}}`, http.StatusBadRequest},
		{"risk free download fails", `{` + returns + `}`, http.StatusBadGateway},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := testServer(&stubSource{err: errors.New("provider down")}, nil)
			defer srv.Close()

			res := post(t, srv.URL+"/api/performance", c.body)
			ex.AssertAreEqual(t, "status", c.status, res.StatusCode)
			res.Body.Close()
		})
	}
}

func Test_Endpoints_PostPerformanceWithRiskFreeSeries(t *testing.T) {
	source := &stubSource{}
	srv := testServer(source, nil)
	defer srv.Close()

	res := post(t, srv.URL+"/api/performance",
		`{"returns":{"index":["2024-01-01T00:00:00Z","2024-01-02T00:00:00Z","2024-01-03T00:00:00Z"],"columns":["A"],"data":{"A":[0.01,0.02,0.03]}},`+
			`"riskFreeSeries":{"index":["2023-12-29T00:00:00Z"],"columns":["RF"],"data":{"RF":[0]}}}`)
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)

	body := decode[sm.PerformanceResponse](t, res)
	ex.AssertAreEqual(t, "periods per year", 252, body.Data.PeriodsPerYear)
	ex.AssertAlmostEqual(t, "sharpe", 31.749, body.Data.Sharpe[0].Value.Float64, tolerance)
	assert.Empty(t, source.requests)
}

func Test_Endpoints_Metrics(t *testing.T) {
	srv := testServer(&stubSource{}, nil)
	defer srv.Close()

	get(t, srv.URL+"/api/ping").Body.Close()
	res := get(t, srv.URL+"/metrics")
	defer res.Body.Close()
	ex.AssertAreEqual(t, "status", http.StatusOK, res.StatusCode)
}

func Test_StatusFor(t *testing.T) {
	ex.AssertAreEqual(t, "no data", http.StatusNotFound, statusFor(&m.NoDataError{}))
	ex.AssertAreEqual(t, "empty", http.StatusUnprocessableEntity, statusFor(&m.EmptySeriesError{}))
	ex.AssertAreEqual(t, "unavailable", http.StatusBadGateway, statusFor(&m.DataUnavailableError{}))
	ex.AssertAreEqual(t, "invalid table", http.StatusBadRequest, statusFor(m.ErrInvalidTable))
	ex.AssertAreEqual(t, "other", http.StatusInternalServerError, statusFor(errors.New("x")))
}
