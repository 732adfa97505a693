// Package report renders simulation results as CSV, XLSX and PDF.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"hybrid_simulator/internal/simulator"
)

// Columns is the hourly table header. Consumers rely on its names and order.
var Columns = []string{
	"time", "pv", "wind", "hydro", "gen_total", "load",
	"soc_Wh", "soc_frac", "pwr_charge_W", "pwr_discharge_W", "unmet_W", "export_W",
}

// FileName returns the download name for a run: simulation_<lat>_<lon>_<year>.<ext>.
func FileName(site simulator.SiteInfo, ext string) string {
	return fmt.Sprintf("simulation_%s_%s_%d.%s",
		strconv.FormatFloat(site.Lat, 'f', -1, 64),
		strconv.FormatFloat(site.Lon, 'f', -1, 64),
		site.Year, ext)
}

// values returns the record's fields after time, in Columns order.
func values(r simulator.HourlyRecord) []float64 {
	return []float64{
		r.PV, r.Wind, r.Hydro, r.GenTotal, r.Load,
		r.SoCWh, r.SoCFrac, r.ChargeW, r.DischargeW, r.UnmetW, r.ExportW,
	}
}

// WriteCSV writes the hourly table. Times are RFC 3339 in the run's zone.
func WriteCSV(w io.Writer, records []simulator.HourlyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(Columns))
	for i, r := range records {
		row[0] = r.Time.Format(time.RFC3339)
		for j, v := range values(r) {
			row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV line %d: %w", i+2, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryJSON writes the summary as indented JSON.
func WriteSummaryJSON(w io.Writer, s simulator.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}
