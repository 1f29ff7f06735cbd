package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTable is returned when a table is misaligned or has duplicate timestamps.
	ErrInvalidTable = errors.New("invalid table")

	// ErrNoMissingValues is returned by the per series gap analysis when its
	// precondition (at least one missing value) does not hold.
	ErrNoMissingValues = errors.New("series has no missing values")

	// ErrInvalidSnapshotName is returned for snapshot names that would resolve
	// outside the snapshot directory.
	ErrInvalidSnapshotName = errors.New("invalid snapshot name")
)

// NoDataError is returned when a provider produced nothing for the requested tickers.
type NoDataError struct {
	Tickers []string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data was found for %s", strings.Join(e.Tickers, ", "))
}

// EmptySeriesError is returned when a return series consists entirely of missing values.
type EmptySeriesError struct {
	Name string
}

func (e *EmptySeriesError) Error() string {
	if e.Name == "" {
		return "the series is empty"
	}
	return fmt.Sprintf("series %s is completely empty", e.Name)
}

// DataUnavailableError is returned when the default risk free rate fetch comes back empty.
type DataUnavailableError struct {
	Ticker string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("couldn't get %s data: %v", e.Ticker, e.Err)
	}
	return fmt.Sprintf("couldn't get %s data", e.Ticker)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }
