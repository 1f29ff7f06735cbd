package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// PeriodMax asks a provider for all available history.
const PeriodMax = "max"

// PriceRequest describes a historical price download.
type PriceRequest struct {
	Tickers  []string
	Start    null.Time
	End      null.Time
	Period   string // "1y", "5y", "ytd", "max", ...
	Interval string // "1d", "1wk", "1mo", ...
	Adjust   bool   // adjusted close instead of raw close

	Persist      bool
	SnapshotName string // overrides the derived snapshot name
}

// HasWindow reports whether any time window parameter was supplied.
func (r PriceRequest) HasWindow() bool {
	return r.Start.Valid || r.End.Valid || r.Period != ""
}

// Contains reports whether ts falls inside [Start, End]. Unset bounds are open.
func (r PriceRequest) Contains(ts time.Time) bool {
	if r.Start.Valid && ts.Before(r.Start.Time) {
		return false
	}
	if r.End.Valid && ts.After(r.End.Time) {
		return false
	}
	return true
}

// Prices is the result of a download. Series is set only when exactly one
// ticker was requested.
type Prices struct {
	Table   *Table
	Series  *Series
	SavedTo string
}

// Metric is a per ticker statistic; an invalid Value means not a number.
type Metric struct {
	Ticker string     `json:"ticker"`
	Value  null.Float `json:"value"`
}
