package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// TimeSeriesMetadata is the "Meta Data" block of an Alpha Vantage response.
type TimeSeriesMetadata struct {
	Information   null.String
	Symbol        string
	LastRefreshed time.Time
	OutputSize    null.String
	TimeZone      string
}

// TimeSeriesData is one dated row of an Alpha Vantage time series.
type TimeSeriesData struct {
	Timestamp     time.Time
	Close         null.Float
	AdjustedClose null.Float
}

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}
