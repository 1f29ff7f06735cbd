package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// Series is a single named column aligned to a timestamp axis.
// A missing observation is an invalid null.Float, never a numeric zero.
type Series struct {
	Name   string       `json:"name"`
	Index  []time.Time  `json:"index"`
	Values []null.Float `json:"values"`
}

// Table is a wide, time indexed numeric table: one column per ticker.
// Values is column major, Values[j][i] is column j at row i.
type Table struct {
	Index   []time.Time
	Columns []string
	Values  [][]null.Float
}

// NewTable allocates a table where every cell is missing.
func NewTable(index []time.Time, columns []string) *Table {
	t := &Table{
		Index:   slices.Clone(index),
		Columns: slices.Clone(columns),
		Values:  make([][]null.Float, len(columns)),
	}
	for j := range t.Values {
		t.Values[j] = make([]null.Float, len(index))
	}
	return t
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Index) }

// Empty reports whether the table holds no rows or no columns.
func (t *Table) Empty() bool { return t == nil || len(t.Index) == 0 || len(t.Columns) == 0 }

// Set stores a value at row i of the named column.
func (t *Table) Set(column string, i int, v null.Float) error {
	j := slices.Index(t.Columns, column)
	if j < 0 {
		return fmt.Errorf("unknown column %q", column)
	}
	if i < 0 || i >= len(t.Index) {
		return fmt.Errorf("row %d out of range for %d rows", i, len(t.Index))
	}
	t.Values[j][i] = v
	return nil
}

// Column returns a copy of the named column as a Series.
func (t *Table) Column(name string) (*Series, bool) {
	j := slices.Index(t.Columns, name)
	if j < 0 {
		return nil, false
	}
	return t.series(j), true
}

// Series returns every column, in column order.
func (t *Table) Series() []*Series {
	res := make([]*Series, len(t.Columns))
	for j := range t.Columns {
		res[j] = t.series(j)
	}
	return res
}

func (t *Table) series(j int) *Series {
	return &Series{
		Name:   t.Columns[j],
		Index:  slices.Clone(t.Index),
		Values: slices.Clone(t.Values[j]),
	}
}

// Single returns the only column when the table has exactly one.
func (t *Table) Single() (*Series, bool) {
	if t == nil || len(t.Columns) != 1 {
		return nil, false
	}
	return t.series(0), true
}

// Validate checks column alignment and timestamp uniqueness.
func (t *Table) Validate() error {
	if len(t.Values) != len(t.Columns) {
		return fmt.Errorf("%w: %d columns but %d value vectors", ErrInvalidTable, len(t.Columns), len(t.Values))
	}
	for j, col := range t.Values {
		if len(col) != len(t.Index) {
			return fmt.Errorf("%w: column %q has %d values, index has %d", ErrInvalidTable, t.Columns[j], len(col), len(t.Index))
		}
	}
	seen := make(map[time.Time]struct{}, len(t.Index))
	for _, ts := range t.Index {
		key := ts.UTC()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate timestamp %s", ErrInvalidTable, ts.Format(time.RFC3339))
		}
		seen[key] = struct{}{}
	}
	return nil
}

// SortIndex returns a copy of the table with rows in chronological order.
// The sort is stable so equal timestamps keep their relative order.
func (t *Table) SortIndex() *Table {
	order := make([]int, len(t.Index))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return t.Index[order[a]].Before(t.Index[order[b]]) })

	res := NewTable(nil, t.Columns)
	res.Index = make([]time.Time, len(order))
	for i, o := range order {
		res.Index[i] = t.Index[o]
	}
	for j := range t.Columns {
		res.Values[j] = make([]null.Float, len(order))
		for i, o := range order {
			res.Values[j][i] = t.Values[j][o]
		}
	}
	return res
}

// Len is the number of observations, missing ones included.
func (s *Series) Len() int { return len(s.Values) }

// MissingMask flags every missing observation.
func (s *Series) MissingMask() []bool {
	mask := make([]bool, len(s.Values))
	for i, v := range s.Values {
		mask[i] = !v.Valid
	}
	return mask
}

// FirstValid returns the position of the earliest present value, or -1.
func (s *Series) FirstValid() int {
	return slices.IndexFunc(s.Values, func(v null.Float) bool { return v.Valid })
}

// LastValid returns the position of the latest present value, or -1.
func (s *Series) LastValid() int {
	for i := len(s.Values) - 1; i >= 0; i-- {
		if s.Values[i].Valid {
			return i
		}
	}
	return -1
}

// Present returns the non missing values in order.
func (s *Series) Present() []float64 {
	res := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if v.Valid {
			res = append(res, v.Float64)
		}
	}
	return res
}

// Validate checks that every timestamp has exactly one value and that no
// timestamp repeats.
func (s *Series) Validate() error {
	t := &Table{Index: s.Index, Columns: []string{s.Name}, Values: [][]null.Float{s.Values}}
	return t.Validate()
}

// Sorted returns a chronologically ordered copy of the series. The series
// must pass Validate.
func (s *Series) Sorted() *Series {
	t := &Table{Index: s.Index, Columns: []string{s.Name}, Values: [][]null.Float{s.Values}}
	sorted := t.SortIndex()
	return sorted.series(0)
}

// ValueAsOf returns the value at the latest timestamp on or before ts.
// The series must be sorted.
func (s *Series) ValueAsOf(ts time.Time) null.Float {
	i := sort.Search(len(s.Index), func(i int) bool { return s.Index[i].After(ts) })
	if i == 0 {
		return null.Float{}
	}
	return s.Values[i-1]
}

// MergeSeries aligns several series on the union of their timestamps,
// normalized to UTC. Cells a series has no observation for stay missing.
func MergeSeries(series ...*Series) *Table {
	seen := make(map[time.Time]struct{})
	index := make([]time.Time, 0)
	columns := make([]string, 0, len(series))
	for _, s := range series {
		columns = append(columns, s.Name)
		for _, ts := range s.Index {
			ts = ts.UTC()
			if _, ok := seen[ts]; !ok {
				seen[ts] = struct{}{}
				index = append(index, ts)
			}
		}
	}
	slices.SortFunc(index, func(a, b time.Time) int { return a.Compare(b) })

	position := make(map[time.Time]int, len(index))
	for i, ts := range index {
		position[ts] = i
	}

	res := NewTable(index, columns)
	for j, s := range series {
		for k, ts := range s.Index {
			res.Values[j][position[ts.UTC()]] = s.Values[k]
		}
	}
	return res
}

type tableJSON struct {
	Index   []time.Time             `json:"index"`
	Columns []string                `json:"columns"`
	Data    map[string][]null.Float `json:"data"`
}

// MarshalJSON writes {"index": [...], "columns": [...], "data": {"T": [1.5, null]}}.
func (t Table) MarshalJSON() ([]byte, error) {
	data := make(map[string][]null.Float, len(t.Columns))
	for j, c := range t.Columns {
		data[c] = t.Values[j]
	}
	return json.Marshal(tableJSON{Index: t.Index, Columns: t.Columns, Data: data})
}

// UnmarshalJSON reads the format written by MarshalJSON. When "columns" is
// omitted the data keys are used in sorted order.
func (t *Table) UnmarshalJSON(b []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	columns := raw.Columns
	if len(columns) == 0 {
		for c := range raw.Data {
			columns = append(columns, c)
		}
		slices.Sort(columns)
	}

	values := make([][]null.Float, len(columns))
	for j, c := range columns {
		col, ok := raw.Data[c]
		if !ok {
			return fmt.Errorf("%w: no data for column %q", ErrInvalidTable, c)
		}
		values[j] = col
	}

	*t = Table{Index: raw.Index, Columns: columns, Values: values}
	return t.Validate()
}

var _ json.Marshaler = Table{}
var _ json.Unmarshaler = (*Table)(nil)
