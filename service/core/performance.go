package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	sm "github.com/ImSeekingAlpha/Quant-trading-journey/service/models"
)

const (
	DefaultPeriodsPerYear = sm.Daily
	DefaultRiskFreeTicker = "^IRX"

	sharpePlaces = 3
)

// RiskFree is an annual risk free rate: either a constant Rate or a Series
// of rates. The zero value means the rate has to be downloaded.
type RiskFree struct {
	Rate   null.Float
	Series *m.Series
}

func (rf RiskFree) IsZero() bool { return !rf.Rate.Valid && rf.Series == nil }

type SharpeOptions struct {
	RiskFree       RiskFree
	FetchTicker    string
	PeriodsPerYear int
	// Source is only used when RiskFree is zero.
	Source PriceSource
}

func periodsOrDefault(ppy int) int {
	if ppy <= 0 {
		return DefaultPeriodsPerYear
	}
	return ppy
}

// SeriesCAGR annualizes the compounded return of a return series. Missing
// returns do not compound but still count as periods.
func SeriesCAGR(series *m.Series, periodsPerYear int) (float64, error) {
	present := series.Present()
	if len(present) == 0 {
		return 0, &m.EmptySeriesError{Name: series.Name}
	}

	growth := ex.Map(present, func(r float64) float64 { return 1 + r })
	cumulative := floats.Prod(growth)
	years := float64(series.Len()) / float64(periodsOrDefault(periodsPerYear))

	return math.Pow(cumulative, 1/years) - 1, nil
}

// CAGR computes SeriesCAGR for every column. A column made only of missing
// values fails the whole call.
func CAGR(table *m.Table, periodsPerYear int) ([]m.Metric, error) {
	columns := table.Series()
	for _, series := range columns {
		if series.FirstValid() < 0 {
			return nil, &m.EmptySeriesError{Name: series.Name}
		}
	}

	res := make([]m.Metric, len(columns))
	for i, series := range columns {
		v, err := SeriesCAGR(series, periodsPerYear)
		if err != nil {
			return nil, err
		}
		res[i] = m.Metric{Ticker: series.Name, Value: finite(v)}
	}
	return res, nil
}

// SeriesSharpe is the annualized mean excess return over the annualized
// sample volatility of the returns. riskFree holds the per period rate for
// each row. Rows where either side is missing are skipped. A non finite
// ratio comes back missing.
func SeriesSharpe(series *m.Series, riskFree []null.Float, periodsPerYear int) null.Float {
	ppy := float64(periodsOrDefault(periodsPerYear))

	excess := make([]float64, 0, series.Len())
	for i, r := range series.Values {
		if r.Valid && i < len(riskFree) && riskFree[i].Valid {
			excess = append(excess, r.Float64-riskFree[i].Float64)
		}
	}

	returns := series.Present()
	if len(excess) == 0 || len(returns) < 2 {
		return null.Float{}
	}

	annualExcess := stat.Mean(excess, nil) * ppy
	annualVol := stat.StdDev(returns, nil) * math.Sqrt(ppy)

	v := finite(annualExcess / annualVol)
	if v.Valid {
		v.Float64 = ex.Round(v.Float64, sharpePlaces)
	}
	return v
}

// Sharpe computes SeriesSharpe for every column against a risk free rate
// resolved once and aligned to the table index.
func Sharpe(ctx context.Context, table *m.Table, options SharpeOptions) ([]m.Metric, error) {
	table = table.SortIndex()
	ppy := periodsOrDefault(options.PeriodsPerYear)

	riskFree, err := ResolveRiskFree(ctx, table.Index, options)
	if err != nil {
		return nil, err
	}

	columns := table.Series()
	res := make([]m.Metric, len(columns))
	for i, series := range columns {
		res[i] = m.Metric{Ticker: series.Name, Value: SeriesSharpe(series, riskFree, ppy)}
	}
	return res, nil
}

// ResolveRiskFree turns the annual risk free input into a per period rate for
// every timestamp of index. Series rates are forward filled: each timestamp
// takes the latest rate on or before it.
func ResolveRiskFree(ctx context.Context, index []time.Time, options SharpeOptions) ([]null.Float, error) {
	ppy := float64(periodsOrDefault(options.PeriodsPerYear))
	res := make([]null.Float, len(index))

	switch {
	case options.RiskFree.Rate.Valid:
		for i := range res {
			res[i] = null.FloatFrom(options.RiskFree.Rate.Float64 / ppy)
		}
		return res, nil
	case options.RiskFree.Series != nil:
		return alignRates(options.RiskFree.Series, index, ppy), nil
	}

	rates, err := fetchRiskFree(ctx, options)
	if err != nil {
		return nil, err
	}
	return alignRates(rates, index, ppy), nil
}

func alignRates(annual *m.Series, index []time.Time, ppy float64) []null.Float {
	sorted := annual.Sorted()
	res := make([]null.Float, len(index))
	for i, ts := range index {
		if v := sorted.ValueAsOf(ts); v.Valid {
			res[i] = null.FloatFrom(v.Float64 / ppy)
		}
	}
	return res
}

// fetchRiskFree downloads the full daily history of the rate ticker. Yields
// are quoted in percent.
func fetchRiskFree(ctx context.Context, options SharpeOptions) (*m.Series, error) {
	ticker := options.FetchTicker
	if ticker == "" {
		ticker = DefaultRiskFreeTicker
	}
	if options.Source == nil {
		return nil, &m.DataUnavailableError{Ticker: ticker, Err: fmt.Errorf("no price source configured")}
	}

	log.Info().Str("ticker", ticker).Msg("downloading risk free rate")
	table, err := options.Source.FetchPrices(ctx, m.PriceRequest{
		Tickers: []string{ticker},
		Period:  m.PeriodMax,
		Adjust:  true,
	})
	if err != nil {
		return nil, &m.DataUnavailableError{Ticker: ticker, Err: err}
	}

	if table.Empty() {
		return nil, &m.DataUnavailableError{Ticker: ticker}
	}
	closes, ok := table.Column(ticker)
	if !ok || closes.FirstValid() < 0 {
		return nil, &m.DataUnavailableError{Ticker: ticker}
	}

	for i, v := range closes.Values {
		if v.Valid {
			closes.Values[i] = null.FloatFrom(v.Float64 / 100)
		}
	}
	return closes, nil
}

func finite(v float64) null.Float {
	if !ex.IsFinite(v) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
