package core

import (
	"github.com/guregu/null/v6"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
)

// PctChange turns a price table into simple periodic returns. The first row,
// and any row where either price is missing, has a missing return.
func PctChange(prices *m.Table) *m.Table {
	sorted := prices.SortIndex()
	res := m.NewTable(sorted.Index, sorted.Columns)
	for j, col := range sorted.Values {
		for i := 1; i < len(col); i++ {
			prev, cur := col[i-1], col[i]
			if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
				continue
			}
			res.Values[j][i] = null.FloatFrom(cur.Float64/prev.Float64 - 1)
		}
	}
	return res
}
