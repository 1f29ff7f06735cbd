package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
)

func Test_PeriodsPerYear(t *testing.T) {
	cases := []struct {
		name     string
		ppy      int
		snapshot string
		interval string
		want     int
	}{
		{"explicit wins", 12, "SPY_2015to2020_1wk.gob", "1d", 12},
		{"weekly snapshot", 0, "SPY_2015to2020_1wk.gob", "", 52},
		{"monthly snapshot", 0, "/data/AAPL_5y_1mo.gob", "1d", 12},
		{"daily download", 0, "", "", 252},
		{"monthly download", 0, "", "1mo", 12},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := periodsPerYear(c.ppy, c.snapshot, c.interval)
			require.NoError(t, err)
			ex.AssertAreEqual(t, "periods per year", c.want, got)
		})
	}
}

func Test_PeriodsPerYear_UnknownSnapshotInterval(t *testing.T) {
	_, err := periodsPerYear(0, "mine.gob", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--ppy")

	_, err = periodsPerYear(0, "", "3d")
	assert.Error(t, err)
}
