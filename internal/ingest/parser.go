package ingest

import (
	"io"

	"hybrid_simulator/internal/timeseries"
)

// Parser reads an hourly (or finer) data table from a source.
type Parser interface {
	Parse(r io.Reader) (*timeseries.Table, error)
}
