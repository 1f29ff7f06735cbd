package alpha_vantage

import (
	"fmt"

	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
)

type TimeSeries uint8

// TimeSeries specifies a frequency to query for stock data. Only the adjusted
// endpoints are used since they carry both the raw and the adjusted close.
const (
	TimeSeriesDailyAdjusted TimeSeries = iota
	TimeSeriesWeeklyAdjusted
	TimeSeriesMonthlyAdjusted
)

func (t TimeSeries) Name() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "TimeSeriesDailyAdjusted"
	case TimeSeriesWeeklyAdjusted:
		return "TimeSeriesWeeklyAdjusted"
	case TimeSeriesMonthlyAdjusted:
		return "TimeSeriesMonthlyAdjusted"
	default:
		return ""
	}
}

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	case TimeSeriesWeeklyAdjusted:
		return "TIME_SERIES_WEEKLY_ADJUSTED"
	case TimeSeriesMonthlyAdjusted:
		return "TIME_SERIES_MONTHLY_ADJUSTED"
	default:
		return ""
	}
}

func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	case TimeSeriesWeeklyAdjusted:
		return "Weekly Adjusted Time Series"
	case TimeSeriesMonthlyAdjusted:
		return "Monthly Adjusted Time Series"
	default:
		return ""
	}
}

// FromInterval picks the endpoint serving bars of the given size.
func FromInterval(interval api.TimeInterval) (TimeSeries, error) {
	switch interval {
	case api.TimeIntervalDaily:
		return TimeSeriesDailyAdjusted, nil
	case api.TimeIntervalWeekly:
		return TimeSeriesWeeklyAdjusted, nil
	case api.TimeIntervalMonthly:
		return TimeSeriesMonthlyAdjusted, nil
	default:
		return 0, fmt.Errorf("alpha vantage provider does not serve %s bars", interval.Interval())
	}
}
