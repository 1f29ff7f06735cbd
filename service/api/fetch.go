package api

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
)

const DefaultMaxParallel = 4

// SeriesFetcher downloads the price series of a single ticker.
type SeriesFetcher func(ctx context.Context, ticker string) (*m.Series, error)

// FetchAll downloads every ticker with at most maxParallel requests in flight
// and merges the results on the union of their timestamps. Column order
// follows tickers. Any failed download cancels the rest.
func FetchAll(ctx context.Context, tickers []string, maxParallel int, fetch SeriesFetcher) (*m.Table, error) {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}

	// deriving the group context means one failed ticker cancels the others,
	// and a cancelled caller cancels all of them
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	results := make([]*m.Series, len(tickers))
	for i, ticker := range tickers {
		g.Go(func() error {
			series, err := fetch(gctx, ticker)
			if err != nil {
				return fmt.Errorf("error downloading %s: %w", ticker, err)
			}
			if series == nil {
				series = &m.Series{}
			}
			series.Name = ticker
			results[i] = series
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Strs("tickers", tickers).Msg("downloaded all tickers")
	return m.MergeSeries(results...), nil
}
