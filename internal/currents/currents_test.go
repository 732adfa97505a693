package currents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/timeseries"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourlyIndex(n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return index
}

type failingProvider struct{ err error }

func (f failingProvider) Name() string { return "broken" }
func (f failingProvider) Fetch(context.Context, []time.Time) ([]float64, error) {
	return nil, f.err
}

type shortProvider struct{}

func (shortProvider) Name() string { return "short" }
func (shortProvider) Fetch(context.Context, []time.Time) ([]float64, error) {
	return []float64{1}, nil
}

func uploadedTable(speeds ...float64) *timeseries.Table {
	tbl := timeseries.New()
	for i, v := range speeds {
		tbl.AddRow(t0.Add(time.Duration(i)*time.Hour), map[model.Column]float64{model.ColCurrentSpeed: v})
	}
	return tbl
}

func TestResolve_UploadedBeatsSynthetic(t *testing.T) {
	index := hourlyIndex(4)
	providers := []Provider{
		Uploaded{Table: uploadedTable(0.1, 0.2, 0.3, 0.4)},
		Synthetic{MeanSpeed: 0.5, PeakSpeed: 1.5},
	}

	res := Resolve(context.Background(), providers, index)

	assert.Equal(t, "uploaded", res.Source)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, res.Speed)
	assert.Empty(t, res.Skipped)
	assert.InDelta(t, 0.25, res.Stats.Mean, 1e-9)
	assert.InDelta(t, 0.4, res.Stats.Max, 1e-9)
	assert.InDelta(t, 0.1, res.Stats.Min, 1e-9)
}

func TestResolve_DegradesPastFailures(t *testing.T) {
	index := hourlyIndex(3)
	providers := []Provider{
		failingProvider{err: errors.New("connection refused")},
		shortProvider{},
		Synthetic{MeanSpeed: 1, PeakSpeed: 1},
	}

	res := Resolve(context.Background(), providers, index)

	assert.Equal(t, "synthetic", res.Source)
	assert.Equal(t, []float64{1, 1, 1}, res.Speed)
	assert.Equal(t, []string{"broken", "short"}, res.Skipped)
}

func TestResolve_AllFailGivesZero(t *testing.T) {
	index := hourlyIndex(5)
	res := Resolve(context.Background(), []Provider{failingProvider{err: ErrNoData}}, index)

	assert.Equal(t, SourceNone, res.Source)
	require.Len(t, res.Speed, 5)
	for _, v := range res.Speed {
		assert.Zero(t, v)
	}
	assert.Zero(t, res.Stats.Max)
}

func TestResolve_NoProviders(t *testing.T) {
	res := Resolve(context.Background(), nil, hourlyIndex(2))
	assert.Equal(t, SourceNone, res.Source)
	assert.Equal(t, []float64{0, 0}, res.Speed)
}

func TestUploaded_InterpolatesOntoIndex(t *testing.T) {
	tbl := timeseries.New()
	tbl.AddRow(t0, map[model.Column]float64{model.ColCurrentSpeed: 0})
	tbl.AddRow(t0.Add(2*time.Hour), map[model.Column]float64{model.ColCurrentSpeed: 1})

	speed, err := Uploaded{Table: tbl}.Fetch(context.Background(), hourlyIndex(4))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, speed[0], 1e-9)
	assert.InDelta(t, 0.5, speed[1], 1e-9)
	assert.InDelta(t, 1.0, speed[2], 1e-9)
	assert.InDelta(t, 1.0, speed[3], 1e-9, "held past the last sample")
}

func TestUploaded_SpeedFromComponents(t *testing.T) {
	tbl := timeseries.New()
	tbl.AddRow(t0, map[model.Column]float64{model.ColCurrentU: 3, model.ColCurrentV: 4})
	tbl.AddRow(t0.Add(time.Hour), map[model.Column]float64{model.ColCurrentU: -0.6, model.ColCurrentV: 0.8})

	speed, err := Uploaded{Table: tbl}.Fetch(context.Background(), hourlyIndex(2))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, speed[0], 1e-9)
	assert.InDelta(t, 1.0, speed[1], 1e-9)
}

func TestUploaded_ClampsNegative(t *testing.T) {
	speed, err := Uploaded{Table: uploadedTable(-0.3, 0.2)}.Fetch(context.Background(), hourlyIndex(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.2}, speed)
}

func TestUploaded_NoUsableColumns(t *testing.T) {
	tbl := timeseries.New()
	tbl.AddRow(t0, map[model.Column]float64{model.ColGHI: 100})

	_, err := Uploaded{Table: tbl}.Fetch(context.Background(), hourlyIndex(2))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Uploaded{}.Fetch(context.Background(), hourlyIndex(2))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestUploaded_LocalIndex(t *testing.T) {
	loc := timeseries.LocalZone(30)
	// 02:00 local is 00:00 UTC
	index := []time.Time{time.Date(2024, 1, 1, 2, 0, 0, 0, loc), time.Date(2024, 1, 1, 3, 0, 0, 0, loc)}

	speed, err := Uploaded{Table: uploadedTable(0.7, 0.9)}.Fetch(context.Background(), index)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, speed[0], 1e-9)
	assert.InDelta(t, 0.9, speed[1], 1e-9)
}
