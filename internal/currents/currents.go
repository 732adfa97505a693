// Package currents selects the sea current speed series that drives the
// hydro model from an ordered chain of providers.
package currents

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/timeseries"
)

// ErrNoData is returned by a provider that has nothing for the requested
// period.
var ErrNoData = errors.New("currents: no data")

// SourceNone names the all-zero fallback.
const SourceNone = "none"

// Provider yields a current speed series aligned to the simulation index.
// Speeds are in m/s and never negative.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, index []time.Time) ([]float64, error)
}

// Stats summarizes a resolved speed series.
type Stats struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Source string
	Speed  []float64
	Stats  Stats
	// Skipped lists providers that failed, in the order tried.
	Skipped []string
}

// Resolve tries providers in order and returns the first series that
// resolves. A provider error is logged and the next one tried. When all fail
// the speed is zero for every hour.
func Resolve(ctx context.Context, providers []Provider, index []time.Time) Resolution {
	logger := log.Ctx(ctx)
	res := Resolution{Source: SourceNone}

	for _, p := range providers {
		speed, err := p.Fetch(ctx, index)
		if err == nil && len(speed) != len(index) {
			err = ErrNoData
		}
		if err != nil {
			logger.WarnContext(ctx, "current source unavailable",
				slog.String("source", p.Name()),
				slog.Any("error", err))
			res.Skipped = append(res.Skipped, p.Name())
			continue
		}
		res.Source = p.Name()
		res.Speed = speed
		break
	}
	if res.Speed == nil {
		res.Speed = make([]float64, len(index))
	}

	res.Stats = computeStats(res.Speed)
	logger.InfoContext(ctx, "current source resolved",
		slog.String("source", res.Source),
		slog.Float64("mean", res.Stats.Mean),
		slog.Float64("max", res.Stats.Max),
		slog.Float64("min", res.Stats.Min))
	return res
}

func computeStats(speed []float64) Stats {
	if len(speed) == 0 {
		return Stats{}
	}
	s := Stats{Max: math.Inf(-1), Min: math.Inf(1)}
	var sum float64
	for _, v := range speed {
		sum += v
		s.Max = math.Max(s.Max, v)
		s.Min = math.Min(s.Min, v)
	}
	s.Mean = sum / float64(len(speed))
	return s
}

// alignSpeed puts a current table (any cadence, any zone, sorted) onto the
// index and returns a non-negative speed. Speed is taken from the speed
// column or derived from the U/V components.
func alignSpeed(t *timeseries.Table, index []time.Time) ([]float64, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrNoData
	}

	hasSpeed := t.Has(model.ColCurrentSpeed)
	hasUV := t.Has(model.ColCurrentU) && t.Has(model.ColCurrentV)
	if !hasSpeed && !hasUV {
		return nil, ErrNoData
	}

	var aligned *timeseries.Table
	if len(index) > 0 {
		aligned = timeseries.Reindex(timeseries.ResampleHourly(t).In(index[0].Location()), index)
	} else {
		aligned = timeseries.FromIndex(nil)
	}

	speed := make([]float64, len(index))
	if hasSpeed {
		vals, _ := aligned.Column(model.ColCurrentSpeed)
		copy(speed, vals)
	} else {
		u, _ := aligned.Column(model.ColCurrentU)
		v, _ := aligned.Column(model.ColCurrentV)
		for i := range speed {
			speed[i] = math.Hypot(u[i], v[i])
		}
	}
	for i, v := range speed {
		if math.IsNaN(v) || v < 0 {
			speed[i] = 0
		}
	}
	return speed, nil
}
