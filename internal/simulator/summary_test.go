package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid_simulator/internal/timeseries"
)

func flatRecords(year int, socFrac float64) []HourlyRecord {
	index := timeseries.HourlyIndex(year, time.UTC)
	records := make([]HourlyRecord, len(index))
	for i, ts := range index {
		records[i] = HourlyRecord{Time: ts, SoCFrac: socFrac, SoCWh: socFrac * 9000, Load: 250}
	}
	return records
}

func TestWorstWeek_FindsDip(t *testing.T) {
	records := flatRecords(2023, 0.6)
	dipStart := 24 * 200
	for i := dipStart; i < dipStart+WorstWeekHours; i++ {
		records[i].SoCFrac = 0.1
	}

	start, ok := WorstWeek(records)
	require.True(t, ok)
	assert.Equal(t, dipStart, start)

	s := Summarize(records, defaultBatteryConfig, 0)
	require.NotNil(t, s.WorstWeekStart)
	assert.Equal(t, records[dipStart].Time, *s.WorstWeekStart)

	week := WorstWeekSlice(records)
	require.Len(t, week, WorstWeekHours)
	assert.Equal(t, records[dipStart].Time, week[0].Time)
}

func TestWorstWeek_FlatPicksFirst(t *testing.T) {
	records := flatRecords(2023, 0.5)
	start, ok := WorstWeek(records)
	require.True(t, ok)
	assert.Equal(t, 0, start)
}

func TestWorstWeek_TooShort(t *testing.T) {
	records := flatRecords(2023, 0.5)[:WorstWeekHours-1]
	_, ok := WorstWeek(records)
	assert.False(t, ok)
	assert.Nil(t, WorstWeekSlice(records))

	s := Summarize(records, defaultBatteryConfig, 0)
	assert.Nil(t, s.WorstWeekStart)
}

func TestSummarize_Totals(t *testing.T) {
	t1 := time.Date(2023, 1, 31, 23, 0, 0, 0, time.UTC)
	records := []HourlyRecord{
		{Time: t1, PV: 1000, Wind: 500, Hydro: 250, GenTotal: 1750, Load: 250, ExportW: 100, SoCFrac: 0.2},
		{Time: t1.Add(time.Hour), PV: 0, Wind: 0, Hydro: 0, GenTotal: 0, Load: 250, UnmetW: 50, SoCFrac: 0.9},
	}

	s := Summarize(records, defaultBatteryConfig, 1.5)
	assert.InDelta(t, 1.0, s.EnergyKWh.PV, 1e-9)
	assert.InDelta(t, 0.5, s.EnergyKWh.Wind, 1e-9)
	assert.InDelta(t, 0.25, s.EnergyKWh.Hydro, 1e-9)
	assert.InDelta(t, 1.75, s.EnergyKWh.TotalGen, 1e-9)
	assert.InDelta(t, 0.5, s.EnergyKWh.Load, 1e-9)
	assert.InDelta(t, 0.1, s.EnergyKWh.Exports, 1e-9)
	assert.InDelta(t, 0.05, s.EnergyKWh.Unmet, 1e-9)

	assert.InDelta(t, 9000, s.Battery.EMaxWh, 1e-9)
	assert.InDelta(t, 20, s.Battery.SoCMinPct, 1e-9)
	assert.InDelta(t, 90, s.Battery.SoCMaxPct, 1e-9)
	assert.InDelta(t, 1.5, s.Battery.CyclesApprox, 1e-9)

	require.Len(t, s.MonthlyKWh, 2)
	assert.Equal(t, "2023-01", s.MonthlyKWh[0].Month)
	assert.InDelta(t, 1.0, s.MonthlyKWh[0].PV, 1e-9)
	assert.Equal(t, "2023-02", s.MonthlyKWh[1].Month)
	assert.InDelta(t, 0.05, s.MonthlyKWh[1].Unmet, 1e-9)

	assert.InDelta(t, 1, s.SoCHoursByBucket[20], 1e-9)
	assert.InDelta(t, 1, s.SoCHoursByBucket[90], 1e-9)
	assert.Contains(t, s.DiurnalProfiles, "pv")
	assert.Equal(t, 23, s.DiurnalProfiles["pv"].PeakHour)
}

func TestDispatch_LengthMismatch(t *testing.T) {
	index := timeseries.HourlyIndex(2023, time.UTC)[:10]
	gen := NewGeneration(index)

	_, err := Dispatch(gen, ConstantLoad(9, 6), NewBattery(defaultBatteryConfig))
	assert.Error(t, err)

	gen.PV = gen.PV[:5]
	_, err = Dispatch(gen, ConstantLoad(10, 6), NewBattery(defaultBatteryConfig))
	assert.Error(t, err)
}

func TestDispatch_Records(t *testing.T) {
	index := timeseries.HourlyIndex(2023, time.UTC)[:3]
	gen := NewGeneration(index)
	gen.PV[0] = 5000
	gen.Wind[1] = 100

	records, err := Dispatch(gen, ConstantLoad(3, 24), NewBattery(defaultBatteryConfig))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.InDelta(t, 1000, records[0].Load, 1e-9)
	assert.InDelta(t, 4000, records[0].ChargeW, 1e-9)
	assert.InDelta(t, 5000, records[0].GenTotal, 1e-9)
	assert.InDelta(t, 900, records[1].DischargeW, 1e-9)
	assert.InDelta(t, 1000, records[2].DischargeW, 1e-9)
	assert.InDelta(t, records[2].SoCWh/9000, records[2].SoCFrac, 1e-12)
	assert.Equal(t, index[1], records[1].Time)
}

func TestConstantLoad(t *testing.T) {
	load := ConstantLoad(3, 12)
	assert.Equal(t, []float64{500, 500, 500}, load)
	assert.Equal(t, []float64{0, 0}, ConstantLoad(2, -5))
}
