package yahoo

import (
	"time"

	"github.com/guregu/null/v6"
)

// chartResponse mirrors the subset of /v8/finance/chart we read.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []null.Float `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []null.Float `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	DataGranularity      string `json:"dataGranularity"`
}

func (r *chartResult) closes(adjusted bool) []null.Float {
	if adjusted && len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		return r.Indicators.AdjClose[0].AdjClose
	}
	if len(r.Indicators.Quote) > 0 {
		return r.Indicators.Quote[0].Close
	}
	return nil
}

func (r *chartResult) location() *time.Location {
	if r.Meta.ExchangeTimezoneName == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Meta.ExchangeTimezoneName)
	if err != nil {
		return time.UTC
	}
	return loc
}
