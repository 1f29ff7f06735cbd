package api

import (
	"fmt"
	"slices"
	"time"

	"github.com/guregu/null/v6"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
)

var validPeriods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", m.PeriodMax}

func ValidatePeriod(period string) error {
	if period == "" || slices.Contains(validPeriods, period) {
		return nil
	}
	return fmt.Errorf("unsupported period %q, expected one of %v", period, validPeriods)
}

// PeriodStart converts a lookback period into the earliest timestamp it covers,
// relative to now. "max" and "" have no lower bound.
func PeriodStart(period string, now time.Time) null.Time {
	switch period {
	case "1d":
		return null.TimeFrom(now.AddDate(0, 0, -1))
	case "5d":
		return null.TimeFrom(now.AddDate(0, 0, -5))
	case "1mo":
		return null.TimeFrom(now.AddDate(0, -1, 0))
	case "3mo":
		return null.TimeFrom(now.AddDate(0, -3, 0))
	case "6mo":
		return null.TimeFrom(now.AddDate(0, -6, 0))
	case "1y":
		return null.TimeFrom(now.AddDate(-1, 0, 0))
	case "2y":
		return null.TimeFrom(now.AddDate(-2, 0, 0))
	case "5y":
		return null.TimeFrom(now.AddDate(-5, 0, 0))
	case "10y":
		return null.TimeFrom(now.AddDate(-10, 0, 0))
	case "ytd":
		return null.TimeFrom(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()))
	default:
		return null.Time{}
	}
}
