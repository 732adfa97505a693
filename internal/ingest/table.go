package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/timeseries"
)

// TimeColumn is the required index column of every table CSV.
const TimeColumn = "time"

// TableParser parses CSV tables with a time column and named value columns.
//
// Expected format:
//
//	time,GHI,DNI,DHI,T2M_C,WS10M
//	2024-06-01T12:00:00Z,812.5,640.1,172.4,18.2,4.1
//
// Column names match the catalog case-insensitively. Unknown columns are
// ignored, as are columns not in Columns when it is set. Timestamps without a
// zone are UTC. Rows with an unparseable timestamp are skipped; empty or
// non-numeric cells are missing values.
type TableParser struct {
	Columns []model.Column
}

func NewTableParser(cols ...model.Column) *TableParser {
	return &TableParser{Columns: cols}
}

func (p *TableParser) Parse(r io.Reader) (*timeseries.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	timeIdx, cols, err := p.mapHeader(header)
	if err != nil {
		return nil, err
	}

	tbl := timeseries.New()
	lineNum := 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		if timeIdx >= len(record) {
			continue
		}

		ts, err := ParseTimestamp(record[timeIdx])
		if err != nil {
			continue
		}

		row := make(map[model.Column]float64, len(cols))
		for i, col := range cols {
			if col == "" || i >= len(record) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				continue
			}
			row[col] = v
		}
		tbl.AddRow(ts, row)
	}

	if tbl.Len() == 0 {
		return nil, fmt.Errorf("no rows with a valid %q value", TimeColumn)
	}
	tbl.Sort()
	return tbl, nil
}

// mapHeader returns the time column position and, per position, the catalog
// column to read there or "" to skip it.
func (p *TableParser) mapHeader(header []string) (int, []model.Column, error) {
	allowed := make(map[model.Column]bool)
	if len(p.Columns) == 0 {
		for col := range model.ColumnCatalog {
			allowed[col] = true
		}
	} else {
		for _, col := range p.Columns {
			allowed[col] = true
		}
	}

	timeIdx := -1
	cols := make([]model.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if strings.EqualFold(name, TimeColumn) {
			if timeIdx < 0 {
				timeIdx = i
			}
			continue
		}
		for col := range allowed {
			if strings.EqualFold(name, string(col)) {
				cols[i] = col
				break
			}
		}
	}

	if timeIdx < 0 {
		return 0, nil, fmt.Errorf("expected a %q column, got %q", TimeColumn, strings.Join(header, ","))
	}
	return timeIdx, cols, nil
}

// ReadFile parses the CSV table at path.
func ReadFile(path string, cols ...model.Column) (*timeseries.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := NewTableParser(cols...).Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tbl, nil
}
