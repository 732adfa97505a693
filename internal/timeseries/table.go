package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	"hybrid_simulator/internal/model"
)

// Table holds named float columns over a time index. Missing values are NaN.
// After Sort the index is strictly increasing.
type Table struct {
	times   []time.Time
	columns map[model.Column][]float64
}

func New() *Table {
	return &Table{columns: make(map[model.Column][]float64)}
}

// FromIndex creates a table with the given index and no columns.
func FromIndex(times []time.Time) *Table {
	t := New()
	t.times = append([]time.Time(nil), times...)
	return t
}

// AddRow appends one row. Columns absent from the row are NaN for it, and
// columns new to the table are NaN for every earlier row.
func (t *Table) AddRow(ts time.Time, row map[model.Column]float64) {
	n := len(t.times)
	for col := range row {
		if _, ok := t.columns[col]; !ok {
			t.columns[col] = nanSlice(n)
		}
	}
	t.times = append(t.times, ts)
	for col, vals := range t.columns {
		v, ok := row[col]
		if !ok {
			v = math.NaN()
		}
		t.columns[col] = append(vals, v)
	}
}

// Set replaces a column. values must match the index length.
func (t *Table) Set(col model.Column, values []float64) {
	if len(values) != len(t.times) {
		panic(fmt.Sprintf("timeseries: column %s has %d values for %d rows", col, len(values), len(t.times)))
	}
	t.columns[col] = append([]float64(nil), values...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.times)
}

// Times returns the index. The slice must not be modified.
func (t *Table) Times() []time.Time {
	return t.times
}

// Has reports whether the column exists and holds at least one value.
func (t *Table) Has(col model.Column) bool {
	vals, ok := t.columns[col]
	if !ok {
		return false
	}
	for _, v := range vals {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Column returns the column values. The slice must not be modified.
func (t *Table) Column(col model.Column) ([]float64, bool) {
	vals, ok := t.columns[col]
	return vals, ok
}

// ColumnOr returns a copy of the column with NaN replaced by def, or a
// column filled with def when it is absent.
func (t *Table) ColumnOr(col model.Column, def float64) []float64 {
	out := make([]float64, len(t.times))
	vals, ok := t.columns[col]
	for i := range out {
		if ok && !math.IsNaN(vals[i]) {
			out[i] = vals[i]
		} else {
			out[i] = def
		}
	}
	return out
}

// Columns returns all column names, sorted.
func (t *Table) Columns() []model.Column {
	cols := make([]model.Column, 0, len(t.columns))
	for c := range t.columns {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

// Sort orders rows by timestamp. Rows sharing a timestamp collapse into the
// last one added.
func (t *Table) Sort() {
	order := make([]int, len(t.times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.times[order[a]].Before(t.times[order[b]])
	})

	keep := make([]int, 0, len(order))
	for _, idx := range order {
		if n := len(keep); n > 0 && t.times[keep[n-1]].Equal(t.times[idx]) {
			keep[n-1] = idx
			continue
		}
		keep = append(keep, idx)
	}

	times := make([]time.Time, len(keep))
	for i, idx := range keep {
		times[i] = t.times[idx]
	}
	for col, vals := range t.columns {
		out := make([]float64, len(keep))
		for i, idx := range keep {
			out[i] = vals[idx]
		}
		t.columns[col] = out
	}
	t.times = times
}

// TimeRange returns the first and last timestamps of a sorted table.
func (t *Table) TimeRange() (model.TimeRange, bool) {
	if len(t.times) == 0 {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: t.times[0], End: t.times[len(t.times)-1]}, true
}

// In returns a copy whose index is expressed in loc.
func (t *Table) In(loc *time.Location) *Table {
	out := t.Clone()
	for i, ts := range out.times {
		out.times[i] = ts.In(loc)
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := FromIndex(t.times)
	for col, vals := range t.columns {
		out.columns[col] = append([]float64(nil), vals...)
	}
	return out
}

// RowsInRange returns the rows between start (inclusive) and end (exclusive)
// of a sorted table.
func (t *Table) RowsInRange(start, end time.Time) *Table {
	startIdx := sort.Search(len(t.times), func(i int) bool {
		return !t.times[i].Before(start)
	})
	endIdx := sort.Search(len(t.times), func(i int) bool {
		return !t.times[i].Before(end)
	})
	if startIdx >= endIdx {
		return FromIndex(nil)
	}

	out := FromIndex(t.times[startIdx:endIdx])
	for col, vals := range t.columns {
		out.columns[col] = append([]float64(nil), vals[startIdx:endIdx]...)
	}
	return out
}

// ValueAt returns the most recent value of col at or before ts.
func (t *Table) ValueAt(col model.Column, ts time.Time) (float64, bool) {
	vals, ok := t.columns[col]
	if !ok || len(vals) == 0 {
		return 0, false
	}

	// Find first row after ts
	idx := sort.Search(len(t.times), func(i int) bool {
		return t.times[i].After(ts)
	})
	if idx == 0 {
		return 0, false
	}
	return vals[idx-1], true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
