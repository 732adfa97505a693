package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"hybrid_simulator/internal/simulator"
)

// BuildPDF renders a one-page summary with the monthly energy table.
func BuildPDF(s simulator.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Hybrid Off-Grid Simulation")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	for _, row := range summaryRows(s) {
		pdf.CellFormat(60, 6, row[0].(string), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, formatValue(row[1]), "", 0, "L", false, 0, "")
		pdf.Ln(5)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{22, 22, 22, 22, 24, 22, 24, 22}
	header := []string{"Month", "PV", "Wind", "Hydro", "Total", "Load", "Exports", "Unmet"}
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, m := range s.MonthlyKWh {
		pdf.CellFormat(widths[0], 6, m.Month, "1", 0, "C", false, 0, "")
		for i, v := range []float64{m.PV, m.Wind, m.Hydro, m.TotalGen, m.Load, m.Exports, m.Unmet} {
			pdf.CellFormat(widths[i+1], 6, fmt.Sprintf("%.1f", v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, "Monthly values in kWh.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(x)
	}
}
