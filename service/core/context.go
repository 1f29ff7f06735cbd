package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	r "github.com/ImSeekingAlpha/Quant-trading-journey/data/repos"
	av "github.com/ImSeekingAlpha/Quant-trading-journey/service/api/alpha_vantage"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api/yahoo"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/config"
)

type ServiceContext struct {
	Context   context.Context
	Config    *config.Config
	Retriever *Retriever

	// set only when DATABASE_URL is configured
	PostgresConnection *r.Postgres
}

// NewServiceContext wires the configured market data provider and snapshot
// store. Snapshots go to postgres when a database url is set, otherwise to
// gob files under the data directory.
func NewServiceContext(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Context:   ctx,
		Config:    cfg,
		Retriever: &Retriever{},
	}

	switch cfg.Provider {
	case config.ProviderAlphaVantage:
		sc.Retriever.Source = av.GetClient(cfg.AlphaVantageApiKey, cfg.ClientOptions(), cfg.MaxParallel)
	default:
		sc.Retriever.Source = yahoo.GetClient(cfg.ClientOptions(), cfg.MaxParallel)
	}

	if cfg.DatabaseUrl == "" {
		sc.Retriever.Store = r.NewFileStore(cfg.DataDir)
		log.Debug().Str("dir", cfg.DataDir).Msg("using file snapshot store")
		return sc, nil
	}

	pg, err := r.GetPostgresConnection(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	sc.PostgresConnection = pg
	sc.Retriever.Store = pg
	log.Debug().Msg("using postgres snapshot store")

	return sc, nil
}

// SharpeOptions fills in the configured defaults around a risk free input.
func (sc *ServiceContext) SharpeOptions(riskFree RiskFree, periodsPerYear int) SharpeOptions {
	if periodsPerYear <= 0 {
		periodsPerYear = sc.Config.PeriodsPerYear
	}
	return SharpeOptions{
		RiskFree:       riskFree,
		FetchTicker:    sc.Config.RiskFreeTicker,
		PeriodsPerYear: periodsPerYear,
		Source:         sc.Retriever.Source,
	}
}

func (sc *ServiceContext) Close() {
	if sc.PostgresConnection != nil {
		sc.PostgresConnection.Close()
	}
}
