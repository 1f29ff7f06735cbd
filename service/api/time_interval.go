package api

import (
	"fmt"
	"strings"

	sm "github.com/ImSeekingAlpha/Quant-trading-journey/service/models"
)

// TimeInterval specifies the bar size to query for stock data.
type TimeInterval uint8

const (
	TimeIntervalOneMinute TimeInterval = iota
	TimeIntervalFiveMinute
	TimeIntervalFifteenMinute
	TimeIntervalThirtyMinute
	TimeIntervalSixtyMinute
	TimeIntervalDaily
	TimeIntervalWeekly
	TimeIntervalMonthly
)

const DefaultInterval = TimeIntervalDaily

// regular session bars per trading day, used to annualize intraday data
const minutesPerSession = 390

var allIntervals = []TimeInterval{
	TimeIntervalOneMinute,
	TimeIntervalFiveMinute,
	TimeIntervalFifteenMinute,
	TimeIntervalThirtyMinute,
	TimeIntervalSixtyMinute,
	TimeIntervalDaily,
	TimeIntervalWeekly,
	TimeIntervalMonthly,
}

func (t TimeInterval) Name() string {
	switch t {
	case TimeIntervalOneMinute:
		return "TimeIntervalOneMinute"
	case TimeIntervalFiveMinute:
		return "TimeIntervalFiveMinute"
	case TimeIntervalFifteenMinute:
		return "TimeIntervalFifteenMinute"
	case TimeIntervalThirtyMinute:
		return "TimeIntervalThirtyMinute"
	case TimeIntervalSixtyMinute:
		return "TimeIntervalSixtyMinute"
	case TimeIntervalDaily:
		return "TimeIntervalDaily"
	case TimeIntervalWeekly:
		return "TimeIntervalWeekly"
	case TimeIntervalMonthly:
		return "TimeIntervalMonthly"
	default:
		return ""
	}
}

// Interval is the wire form, e.g. "1d" or "1wk". It is also the interval
// part of a snapshot name.
func (t TimeInterval) Interval() string {
	switch t {
	case TimeIntervalOneMinute:
		return "1m"
	case TimeIntervalFiveMinute:
		return "5m"
	case TimeIntervalFifteenMinute:
		return "15m"
	case TimeIntervalThirtyMinute:
		return "30m"
	case TimeIntervalSixtyMinute:
		return "60m"
	case TimeIntervalDaily:
		return "1d"
	case TimeIntervalWeekly:
		return "1wk"
	case TimeIntervalMonthly:
		return "1mo"
	default:
		return ""
	}
}

func (t TimeInterval) String() string { return t.Interval() }

func (t TimeInterval) IsIntraday() bool { return t < TimeIntervalDaily }

func (t TimeInterval) Minutes() int {
	switch t {
	case TimeIntervalOneMinute:
		return 1
	case TimeIntervalFiveMinute:
		return 5
	case TimeIntervalFifteenMinute:
		return 15
	case TimeIntervalThirtyMinute:
		return 30
	case TimeIntervalSixtyMinute:
		return 60
	default:
		return 0
	}
}

// PeriodsPerYear is the annualization factor for returns sampled at this interval.
func (t TimeInterval) PeriodsPerYear() int {
	switch t {
	case TimeIntervalDaily:
		return sm.Daily
	case TimeIntervalWeekly:
		return sm.Weekly
	case TimeIntervalMonthly:
		return sm.Monthly
	}
	if m := t.Minutes(); m > 0 {
		return sm.Daily * minutesPerSession / m
	}
	return sm.Daily
}

// ParseTimeInterval accepts the wire form ("1d") and a few common aliases.
// An empty string yields the daily interval.
func ParseTimeInterval(s string) (TimeInterval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return DefaultInterval, nil
	case "1h", "1hr", "60min":
		return TimeIntervalSixtyMinute, nil
	case "1wk", "1w", "weekly":
		return TimeIntervalWeekly, nil
	case "daily":
		return TimeIntervalDaily, nil
	case "monthly":
		return TimeIntervalMonthly, nil
	}
	for _, t := range allIntervals {
		if s == t.Interval() || s == strings.TrimSuffix(t.Interval(), "m")+"min" {
			return t, nil
		}
	}
	return DefaultInterval, fmt.Errorf("unsupported interval %q", s)
}
