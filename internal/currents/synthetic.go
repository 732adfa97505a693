package currents

import (
	"context"
	"math"
	"time"
)

// M2Period is the principal lunar semidiurnal tidal period (12.42 h).
const M2Period = 44712 * time.Second

// Synthetic approximates tidal currents with a single M2 harmonic.
type Synthetic struct {
	MeanSpeed float64
	PeakSpeed float64
}

func (s Synthetic) Name() string { return "synthetic" }

// Fetch returns mean + (peak-mean)·sin(2πt/T_M2) clipped at zero, with t
// measured from the first index entry.
func (s Synthetic) Fetch(_ context.Context, index []time.Time) ([]float64, error) {
	out := make([]float64, len(index))
	if len(index) == 0 {
		return out, nil
	}

	amp := s.PeakSpeed - s.MeanSpeed
	period := M2Period.Seconds()
	for i, ts := range index {
		t := ts.Sub(index[0]).Seconds()
		out[i] = math.Max(s.MeanSpeed+amp*math.Sin(2*math.Pi*t/period), 0)
	}
	return out, nil
}
