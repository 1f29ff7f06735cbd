package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	"github.com/ImSeekingAlpha/Quant-trading-journey/data/repos"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
)

const (
	snapshotExt          = ".gob"
	maxNamedTickers      = 10
	tickerAbbreviatedLen = 4
)

// ErrInvalidRequest marks errors caused by caller input.
var ErrInvalidRequest = errors.New("invalid request")

// PriceSource downloads a price table for the tickers of a request.
type PriceSource interface {
	FetchPrices(ctx context.Context, req m.PriceRequest) (*m.Table, error)
}

// SnapshotStore persists price tables under a name and reports where.
type SnapshotStore interface {
	SaveTable(ctx context.Context, name string, table *m.Table) (string, error)
	LoadTable(ctx context.Context, name string) (*m.Table, error)
}

type Retriever struct {
	Source PriceSource
	Store  SnapshotStore
}

// Fetch downloads prices for req. Without any window the full history is
// requested. When exactly one ticker is requested the result also carries
// it as a Series. With Persist set the table is saved once and the location
// returned in SavedTo. The snapshot name is checked before downloading.
func (r *Retriever) Fetch(ctx context.Context, req m.PriceRequest) (*m.Prices, error) {
	req.Tickers = normalizeTickers(req.Tickers)
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("%w: at least one ticker is required", ErrInvalidRequest)
	}
	if req.Start.Valid && req.End.Valid && req.End.Time.Before(req.Start.Time) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRequest, ex.FmtShort(req.End.Time), ex.FmtShort(req.Start.Time))
	}
	if !req.HasWindow() {
		req.Period = m.PeriodMax
	}
	if req.Interval == "" {
		req.Interval = api.DefaultInterval.Interval()
	}

	var name string
	if req.Persist {
		if r.Store == nil {
			return nil, fmt.Errorf("persist requested but no snapshot store is configured")
		}
		name = req.SnapshotName
		if name == "" {
			name = SnapshotName(req)
		}
		if err := repos.ValidateSnapshotName(name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	table, err := r.Source.FetchPrices(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error fetching prices: %w", err)
	}
	if table.Empty() || allMissing(table) {
		return nil, &m.NoDataError{Tickers: req.Tickers}
	}
	table = table.SortIndex()

	res := &m.Prices{Table: table}
	if len(req.Tickers) == 1 {
		res.Series, _ = table.Single()
	}

	log.Info().Strs("tickers", req.Tickers).Int("rows", table.Len()).Str("interval", req.Interval).Msg("downloaded prices")

	if req.Persist {
		location, err := r.Store.SaveTable(ctx, name, table)
		if err != nil {
			return nil, fmt.Errorf("error saving snapshot %s: %w", name, err)
		}
		log.Info().Str("location", location).Msg("saved snapshot")
		res.SavedTo = location
	}

	return res, nil
}

// Load reads back a snapshot written by Fetch.
func (r *Retriever) Load(ctx context.Context, name string) (*m.Table, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("no snapshot store is configured")
	}
	table, err := r.Store.LoadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	return table.SortIndex(), nil
}

// SnapshotName derives {tickers}_{window}_{interval}.gob. Up to ten tickers
// are listed, each with '-' turned into '_' and cut to four characters;
// longer lists become tickers_{N}t. The window is the period, else the
// start and end years, else "custom".
func SnapshotName(req m.PriceRequest) string {
	var tickerStr string
	if len(req.Tickers) <= maxNamedTickers {
		short := make([]string, len(req.Tickers))
		for i, t := range req.Tickers {
			t = strings.ReplaceAll(t, "-", "_")
			if len(t) > tickerAbbreviatedLen {
				t = t[:tickerAbbreviatedLen]
			}
			short[i] = t
		}
		tickerStr = strings.Join(short, "_")
	} else {
		tickerStr = fmt.Sprintf("tickers_%dt", len(req.Tickers))
	}

	var dateStr string
	switch {
	case req.Period != "":
		dateStr = req.Period
	case req.Start.Valid && req.End.Valid:
		dateStr = fmt.Sprintf("%dto%d", req.Start.Time.Year(), req.End.Time.Year())
	default:
		dateStr = "custom"
	}

	interval := req.Interval
	if interval == "" {
		interval = api.DefaultInterval.Interval()
	}

	return fmt.Sprintf("%s_%s_%s%s", tickerStr, dateStr, interval, snapshotExt)
}

// SnapshotInterval reads the bar interval back out of a name produced by
// SnapshotName. Names without a recognizable interval suffix report false.
func SnapshotInterval(name string) (api.TimeInterval, bool) {
	base := strings.TrimSuffix(filepath.Base(name), snapshotExt)
	i := strings.LastIndex(base, "_")
	if i < 0 {
		return api.DefaultInterval, false
	}

	suffix := base[i+1:]
	interval, err := api.ParseTimeInterval(suffix)
	if err != nil || suffix != interval.Interval() {
		return api.DefaultInterval, false
	}
	return interval, true
}

// normalizeTickers trims, upper cases and drops duplicates, keeping order.
func normalizeTickers(tickers []string) []string {
	res := make([]string, 0, len(tickers))
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}
	return res
}

func allMissing(table *m.Table) bool {
	for _, col := range table.Values {
		for _, v := range col {
			if v.Valid {
				return false
			}
		}
	}
	return true
}
