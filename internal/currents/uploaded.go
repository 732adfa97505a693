package currents

import (
	"context"
	"time"

	"hybrid_simulator/internal/timeseries"
)

// Uploaded serves a user-supplied current table.
type Uploaded struct {
	Table *timeseries.Table
}

func (u Uploaded) Name() string { return "uploaded" }

func (u Uploaded) Fetch(_ context.Context, index []time.Time) ([]float64, error) {
	return alignSpeed(u.Table, index)
}
