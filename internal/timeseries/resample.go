package timeseries

import (
	"math"
	"sort"
	"time"

	"hybrid_simulator/internal/model"
)

// ResampleHourly puts a sorted table on a gap-free hourly grid spanning its
// first to last hour. Samples falling inside the same hour are averaged. Each
// run of empty hours gets its first hour linearly interpolated, the rest of
// the run is forward filled, and leading gaps are back filled.
func ResampleHourly(t *Table) *Table {
	tr, ok := t.TimeRange()
	if !ok {
		return FromIndex(nil)
	}

	start := tr.Start.Truncate(time.Hour)
	end := tr.End.Truncate(time.Hour)
	n := int(end.Sub(start)/time.Hour) + 1
	grid := make([]time.Time, n)
	for i := range grid {
		grid[i] = start.Add(time.Duration(i) * time.Hour)
	}

	out := FromIndex(grid)
	for col, vals := range t.columns {
		sum := make([]float64, n)
		count := make([]int, n)
		for i, ts := range t.times {
			if math.IsNaN(vals[i]) {
				continue
			}
			bin := int(ts.Sub(start) / time.Hour)
			sum[bin] += vals[i]
			count[bin]++
		}
		binned := make([]float64, n)
		for i := range binned {
			if count[i] == 0 {
				binned[i] = math.NaN()
				continue
			}
			binned[i] = sum[i] / float64(count[i])
		}
		out.columns[col] = FillGaps(binned)
	}
	return out
}

// FillGaps fills NaN runs in place: the first element of an interior run is
// linearly interpolated, the remainder forward filled, and a leading run back
// filled. An all-NaN slice is returned unchanged.
func FillGaps(vals []float64) []float64 {
	n := len(vals)
	for i := 0; i < n; {
		if !math.IsNaN(vals[i]) {
			i++
			continue
		}
		j := i
		for j < n && math.IsNaN(vals[j]) {
			j++
		}
		// run is [i, j)
		if i > 0 && j < n {
			frac := 1 / float64(j-i+1)
			vals[i] = vals[i-1] + (vals[j]-vals[i-1])*frac
		}
		i = j
	}

	for i := 1; i < n; i++ {
		if math.IsNaN(vals[i]) {
			vals[i] = vals[i-1]
		}
	}
	for i := n - 2; i >= 0; i-- {
		if math.IsNaN(vals[i]) {
			vals[i] = vals[i+1]
		}
	}
	return vals
}

// Reindex interpolates every column of a sorted table onto index by time.
// Points outside the source range take the nearest edge value. Columns with
// no values stay NaN.
func Reindex(t *Table, index []time.Time) *Table {
	out := FromIndex(index)
	for col, vals := range t.columns {
		var xs []time.Time
		var ys []float64
		for i, v := range vals {
			if math.IsNaN(v) {
				continue
			}
			xs = append(xs, t.times[i])
			ys = append(ys, v)
		}
		out.columns[col] = interpolate(xs, ys, index)
	}
	return out
}

func interpolate(xs []time.Time, ys []float64, index []time.Time) []float64 {
	res := make([]float64, len(index))
	if len(xs) == 0 {
		for i := range res {
			res[i] = math.NaN()
		}
		return res
	}

	for i, ts := range index {
		idx := sort.Search(len(xs), func(k int) bool {
			return !xs[k].Before(ts)
		})
		switch {
		case idx < len(xs) && xs[idx].Equal(ts):
			res[i] = ys[idx]
		case idx == 0:
			res[i] = ys[0]
		case idx == len(xs):
			res[i] = ys[len(ys)-1]
		default:
			span := xs[idx].Sub(xs[idx-1]).Seconds()
			frac := ts.Sub(xs[idx-1]).Seconds() / span
			res[i] = ys[idx-1] + (ys[idx]-ys[idx-1])*frac
		}
	}
	return res
}

// Override returns a copy of base in which each of cols present in over is
// replaced by over's values interpolated onto base's index.
func Override(base, over *Table, cols []model.Column) *Table {
	out := base.Clone()
	if over == nil || over.Len() == 0 {
		return out
	}

	aligned := Reindex(over, base.times)
	for _, col := range cols {
		if !over.Has(col) {
			continue
		}
		out.columns[col] = aligned.columns[col]
	}
	return out
}

// Normalize aligns any sorted source table onto the simulation index: it is
// resampled to hourly, converted to the index's zone and interpolated onto
// the index. Each of cols ends up fully populated, using the catalog default
// where the source has nothing.
func Normalize(t *Table, index []time.Time, cols []model.Column) *Table {
	var aligned *Table
	if t == nil || t.Len() == 0 {
		aligned = FromIndex(index)
	} else {
		hourly := ResampleHourly(t)
		if len(index) > 0 {
			hourly = hourly.In(index[0].Location())
		}
		aligned = Reindex(hourly, index)
	}

	for _, col := range cols {
		aligned.columns[col] = aligned.ColumnOr(col, model.ColumnCatalog[col].Default)
	}
	return aligned
}

// EnvironmentSamples flattens the environment columns into per-hour samples.
// Absent columns take their catalog defaults.
func EnvironmentSamples(t *Table) []model.EnvironmentalSample {
	ghi := t.ColumnOr(model.ColGHI, model.ColumnCatalog[model.ColGHI].Default)
	dni := t.ColumnOr(model.ColDNI, model.ColumnCatalog[model.ColDNI].Default)
	dhi := t.ColumnOr(model.ColDHI, model.ColumnCatalog[model.ColDHI].Default)
	temp := t.ColumnOr(model.ColAirTemp, model.ColumnCatalog[model.ColAirTemp].Default)
	ws := t.ColumnOr(model.ColWindSpeed10, model.ColumnCatalog[model.ColWindSpeed10].Default)

	samples := make([]model.EnvironmentalSample, t.Len())
	for i, ts := range t.times {
		samples[i] = model.EnvironmentalSample{
			Time:        ts,
			GHI:         ghi[i],
			DNI:         dni[i],
			DHI:         dhi[i],
			AirTempC:    temp[i],
			WindSpeed10: ws[i],
		}
	}
	return samples
}
