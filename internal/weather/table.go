package weather

import (
	"context"

	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/timeseries"
)

// TableSource serves a preloaded environmental table, such as a CSV export
// of a previous fetch.
type TableSource struct {
	Label string
	Table *timeseries.Table
}

func (s TableSource) Name() string {
	if s.Label == "" {
		return "table"
	}
	return s.Label
}

func (s TableSource) Fetch(context.Context, model.Site) (*timeseries.Table, error) {
	if s.Table == nil || s.Table.Len() == 0 {
		return nil, ErrNoData
	}
	return s.Table, nil
}
