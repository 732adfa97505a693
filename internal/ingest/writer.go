package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"hybrid_simulator/internal/timeseries"
)

// WriteTable writes t in the format TableParser reads: an RFC 3339 time
// column followed by the table's columns in name order. Missing values are
// empty cells.
func WriteTable(w io.Writer, t *timeseries.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()

	header := make([]string, 0, len(cols)+1)
	header = append(header, TimeColumn)
	values := make([][]float64, len(cols))
	for i, col := range cols {
		header = append(header, string(col))
		values[i], _ = t.Column(col)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	record := make([]string, len(header))
	for row, ts := range t.Times() {
		record[0] = ts.Format(time.RFC3339)
		for i := range cols {
			v := values[i][row]
			if math.IsNaN(v) {
				record[i+1] = ""
			} else {
				record[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV line %d: %w", row+2, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
