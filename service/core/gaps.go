package core

import (
	"errors"
	"slices"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
)

const (
	maxMissingRatio   = 0.3
	maxInternalGapLen = 10
	ratioPlaces       = 4
)

// AnalyzeGaps reports the missing value structure of every column that has
// at least one missing value, ordered by descending missing ratio. A table
// without missing values yields an empty report.
func AnalyzeGaps(table *m.Table) m.GapReport {
	report := make(m.GapReport, 0)
	if table == nil {
		return report
	}

	for _, series := range table.SortIndex().Series() {
		row, err := AnalyzeSeries(series)
		if errors.Is(err, m.ErrNoMissingValues) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("ticker", series.Name).Msg("skipping series in gap analysis")
			continue
		}
		report = append(report, row)
	}

	if len(report) == 0 {
		log.Info().Int("columns", len(table.Columns)).Msg("no missing values found in any ticker")
		return report
	}

	slices.SortStableFunc(report, func(a, b m.GapReportRow) int {
		switch {
		case a.NaNRatio > b.NaNRatio:
			return -1
		case a.NaNRatio < b.NaNRatio:
			return 1
		}
		return 0
	})
	return report
}

// AnalyzeSeries classifies the missing values of a single series. The series
// must contain at least one missing value, otherwise ErrNoMissingValues is
// returned, a misaligned series yields ErrInvalidTable. It is sorted
// chronologically first.
func AnalyzeSeries(series *m.Series) (m.GapReportRow, error) {
	if err := series.Validate(); err != nil {
		return m.GapReportRow{}, err
	}
	series = series.Sorted()
	mask := series.MissingMask()
	length := len(mask)

	total := 0
	for _, missing := range mask {
		if missing {
			total++
		}
	}
	if total == 0 {
		return m.GapReportRow{}, m.ErrNoMissingValues
	}

	row := m.GapReportRow{
		Ticker:       series.Name,
		TotalMissing: total,
		Length:       length,
	}

	first, last := series.FirstValid(), series.LastValid()
	if first < 0 {
		row.Leading = length
	} else {
		row.FirstValid = null.TimeFrom(series.Index[first])
		row.LastValid = null.TimeFrom(series.Index[last])
		// everything before first is missing, same for after last
		row.Leading = first
		row.Trailing = length - 1 - last
		row.Internal = total - row.Leading - row.Trailing
		row.MaxInternalGap = longestRun(mask[first : last+1])
	}

	ratio := float64(total) / float64(length)
	row.NaNRatio = ex.Round(ratio, ratioPlaces)
	row.SuggestedAction = suggestActions(row)
	row.Quality = quality(row, ratio)

	return row, nil
}

func longestRun(mask []bool) (longest int) {
	run := 0
	for _, missing := range mask {
		if !missing {
			run = 0
			continue
		}
		run++
		longest = ex.Max(longest, run)
	}
	return
}

func suggestActions(row m.GapReportRow) string {
	suggestions := make([]string, 0, 2)
	if row.Leading > 0 && row.Internal == 0 && row.Trailing == 0 && row.FirstValid.Valid {
		suggestions = append(suggestions, "Trim start at "+ex.FmtShort(row.FirstValid.Time)+".")
	}
	if row.Trailing > 0 && row.Internal == 0 && row.Leading == 0 {
		suggestions = append(suggestions, "Clip end at "+ex.FmtShort(row.LastValid.Time)+".")
	}
	if row.Internal > 0 {
		suggestions = append(suggestions, "Internal gaps — forward-fill or interpolate.")
	}
	if row.TotalMissing == row.Length {
		suggestions = append(suggestions, "All missing — remove ticker.")
	}
	return strings.Join(suggestions, " ")
}

// quality compares the unrounded ratio against the threshold.
func quality(row m.GapReportRow, ratio float64) m.Quality {
	switch {
	case row.TotalMissing == row.Length:
		return m.QualityDrop
	case ratio > maxMissingRatio || row.MaxInternalGap > maxInternalGapLen:
		return m.QualityDrop
	case row.TotalMissing > 0:
		return m.QualityRepairable
	default:
		return m.QualityGood
	}
}
