package models

import "github.com/guregu/null/v6"

// Quality is the usability verdict for a series.
type Quality string

const (
	QualityGood       Quality = "good"
	QualityRepairable Quality = "repairable"
	QualityDrop       Quality = "drop"
)

// GapReportRow describes the missing value structure of one series.
type GapReportRow struct {
	Ticker          string    `json:"ticker"`
	FirstValid      null.Time `json:"firstValidDate"`
	LastValid       null.Time `json:"lastValidDate"`
	Leading         int       `json:"nLeadingNans"`
	Internal        int       `json:"nInternalNans"`
	Trailing        int       `json:"nTrailingNans"`
	TotalMissing    int       `json:"totalNans"`
	Length          int       `json:"totalLen"`
	NaNRatio        float64   `json:"nanRatio"`
	MaxInternalGap  int       `json:"maxInternalGap"`
	SuggestedAction string    `json:"suggestedAction"`
	Quality         Quality   `json:"qualityFlag"`
}

// GapReport is ordered by descending NaNRatio.
type GapReport []GapReportRow
