package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"hybrid_simulator/internal/simulator"
)

const (
	summarySheet = "summary"
	monthlySheet = "monthly"
	hourlySheet  = "hourly"
	worstSheet   = "worst_week"
)

// BuildXLSX renders a workbook with the summary, monthly energy and the
// hourly table. A worst_week sheet with that week's hours is added when the
// run covers at least one week.
func BuildXLSX(s simulator.Summary, records []simulator.HourlyRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(monthlySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(hourlySheet); err != nil {
		return nil, err
	}

	if err := writeSummarySheet(f, s); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeMonthlySheet(f, s.MonthlyKWh); err != nil {
		return nil, fmt.Errorf("monthly sheet: %w", err)
	}
	if err := writeRecordSheet(f, hourlySheet, records); err != nil {
		return nil, fmt.Errorf("hourly sheet: %w", err)
	}
	if worst := simulator.WorstWeekSlice(records); worst != nil {
		if _, err := f.NewSheet(worstSheet); err != nil {
			return nil, err
		}
		if err := writeRecordSheet(f, worstSheet, worst); err != nil {
			return nil, fmt.Errorf("worst week sheet: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// summaryRows lists the label/value pairs shared by the XLSX and PDF
// renderings.
func summaryRows(s simulator.Summary) [][2]any {
	worst := "n/a"
	if s.WorstWeekStart != nil {
		worst = s.WorstWeekStart.Format(time.RFC3339)
	}
	return [][2]any{
		{"Latitude", s.Site.Lat},
		{"Longitude", s.Site.Lon},
		{"Time zone", s.Site.TZ},
		{"Year", s.Site.Year},
		{"PV (kWh)", s.EnergyKWh.PV},
		{"Wind (kWh)", s.EnergyKWh.Wind},
		{"Hydro (kWh)", s.EnergyKWh.Hydro},
		{"Total generation (kWh)", s.EnergyKWh.TotalGen},
		{"Load (kWh)", s.EnergyKWh.Load},
		{"Exports (kWh)", s.EnergyKWh.Exports},
		{"Unmet (kWh)", s.EnergyKWh.Unmet},
		{"Usable capacity (Wh)", s.Battery.EMaxWh},
		{"SOC min (%)", s.Battery.SoCMinPct},
		{"SOC max (%)", s.Battery.SoCMaxPct},
		{"Approx. cycles", s.Battery.CyclesApprox},
		{"Worst week start", worst},
		{"Current source", s.CurrentSource},
	}
}

func writeSummarySheet(f *excelize.File, s simulator.Summary) error {
	if err := f.SetCellValue(summarySheet, "A1", "Hybrid Simulation Summary"); err != nil {
		return err
	}
	for i, row := range summaryRows(s) {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &[]any{row[0], row[1]}); err != nil {
			return err
		}
	}
	return nil
}

func writeMonthlySheet(f *excelize.File, months []simulator.MonthlyEnergy) error {
	header := []any{"Month", "PV (kWh)", "Wind (kWh)", "Hydro (kWh)", "Total (kWh)", "Load (kWh)", "Exports (kWh)", "Unmet (kWh)"}
	if err := f.SetSheetRow(monthlySheet, "A1", &header); err != nil {
		return err
	}
	for i, m := range months {
		row := []any{m.Month, m.PV, m.Wind, m.Hydro, m.TotalGen, m.Load, m.Exports, m.Unmet}
		if err := f.SetSheetRow(monthlySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeRecordSheet(f *excelize.File, sheet string, records []simulator.HourlyRecord) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range records {
		row := make([]any, 0, len(Columns))
		row = append(row, r.Time.Format(time.RFC3339))
		for _, v := range values(r) {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
