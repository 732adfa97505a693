package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hybrid_simulator/internal/simulator"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("Etc/GMT-0", 0))

func sampleRecords() []simulator.HourlyRecord {
	return []simulator.HourlyRecord{
		{Time: t0, PV: 0, Wind: 120.5, Hydro: 30, GenTotal: 150.5, Load: 250, SoCWh: 4395.7, SoCFrac: 0.4884, DischargeW: 99.5},
		{Time: t0.Add(time.Hour), PV: 0, Wind: 400, Hydro: 30, GenTotal: 430, Load: 250, SoCWh: 4568.3, SoCFrac: 0.5076, ChargeW: 180},
	}
}

func sampleSummary() simulator.Summary {
	worst := t0.Add(24 * time.Hour)
	return simulator.Summary{
		Site:           simulator.SiteInfo{Lat: 50.7, Lon: -3.5, TZ: "Etc/GMT-0", Year: 2024},
		EnergyKWh:      simulator.EnergyKWh{PV: 1800, Wind: 400, Hydro: 250, TotalGen: 2450, Load: 2196, Exports: 300, Unmet: 120},
		Battery:        simulator.BatteryStats{EMaxWh: 9000, SoCMinPct: 0, SoCMaxPct: 100, CyclesApprox: 85.2},
		WorstWeekStart: &worst,
		CurrentSource:  "synthetic",
		MonthlyKWh: []simulator.MonthlyEnergy{
			{Month: "2024-01", EnergyKWh: simulator.EnergyKWh{PV: 60, Wind: 50, Hydro: 21, TotalGen: 131, Load: 186}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"2024-01-01T00:00:00Z", "0", "120.5", "30", "150.5", "250", "4395.7", "0.4884", "0", "99.5", "0", "0"}, rows[1])
	assert.Equal(t, "180", rows[2][8])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "time,pv,wind,hydro,gen_total,load,soc_Wh,soc_frac,pwr_charge_W,pwr_discharge_W,unmet_W,export_W\n", buf.String())
}

func TestWriteSummaryJSON_Keys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryJSON(&buf, sampleSummary()))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	for _, k := range []string{"site", "energy_kwh", "battery", "worst_week_start", "current_source", "monthly_kwh"} {
		assert.Contains(t, m, k)
	}
	energy := m["energy_kwh"].(map[string]any)
	for _, k := range []string{"pv", "wind", "hydro", "total_gen", "load", "exports", "unmet"} {
		assert.Contains(t, energy, k)
	}
	battery := m["battery"].(map[string]any)
	for _, k := range []string{"E_max_Wh", "soc_min_pct", "soc_max_pct", "cycles_approx"} {
		assert.Contains(t, battery, k)
	}
	assert.Equal(t, "2024-01-02T00:00:00Z", m["worst_week_start"])
}

func TestWriteSummaryJSON_NoWorstWeek(t *testing.T) {
	s := sampleSummary()
	s.WorstWeekStart = nil
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryJSON(&buf, s))
	assert.Contains(t, buf.String(), `"worst_week_start": null`)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "simulation_50.7_-3.5_2024.csv", FileName(sampleSummary().Site, "csv"))
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(sampleSummary(), sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, monthlySheet, hourlySheet}, f.GetSheetList())

	title, err := f.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Hybrid Simulation Summary", title)
	source, err := f.GetCellValue(summarySheet, "B19")
	require.NoError(t, err)
	assert.Equal(t, "synthetic", source)

	monthly, err := f.GetRows(monthlySheet)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[1][0])

	hourly, err := f.GetRows(hourlySheet)
	require.NoError(t, err)
	require.Len(t, hourly, 3)
	assert.Equal(t, Columns, hourly[0])
	assert.Equal(t, "120.5", hourly[1][2])
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF(sampleSummary())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 500)
}

func TestBuildXLSX_WorstWeekSheet(t *testing.T) {
	records := make([]simulator.HourlyRecord, 2*simulator.WorstWeekHours)
	for i := range records {
		records[i] = simulator.HourlyRecord{Time: t0.Add(time.Duration(i) * time.Hour), SoCFrac: 0.8}
	}
	for i := 200; i < 200+simulator.WorstWeekHours && i < len(records); i++ {
		records[i].SoCFrac = 0.1
	}

	data, err := BuildXLSX(sampleSummary(), records)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, monthlySheet, hourlySheet, worstSheet}, f.GetSheetList())
	rows, err := f.GetRows(worstSheet)
	require.NoError(t, err)
	require.Len(t, rows, simulator.WorstWeekHours+1)
	assert.Equal(t, t0.Add(168*time.Hour).Format(time.RFC3339), rows[1][0])
}
