package models

import (
	"github.com/guregu/null/v6"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
)

type PricesResponse struct {
	Table   *m.Table  `json:"table"`
	Series  *m.Series `json:"series,omitempty"`
	SavedTo string    `json:"savedTo,omitempty"`
}

type GapsRequest struct {
	Table *m.Table `json:"table"`
}

type GapsResponse struct {
	Report m.GapReport `json:"report"`
}

// PerformanceRequest carries periodic returns. At most one of RiskFreeRate
// and RiskFreeSeries may be set; with neither the rate is downloaded.
type PerformanceRequest struct {
	Returns        *m.Table   `json:"returns"`
	RiskFreeRate   null.Float `json:"riskFreeRate"`
	RiskFreeSeries *m.Table   `json:"riskFreeSeries"`
	PeriodsPerYear int        `json:"periodsPerYear"`
}

type PerformanceResponse struct {
	PeriodsPerYear int        `json:"periodsPerYear"`
	CAGR           []m.Metric `json:"cagr"`
	Sharpe         []m.Metric `json:"sharpe"`
}
