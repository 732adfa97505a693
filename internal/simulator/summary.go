package simulator

import (
	"math"
	"time"

	"hybrid_simulator/internal/solar"
)

// WorstWeekHours is the rolling window used to find the worst week.
const WorstWeekHours = 7 * 24

// worstWeekTolerance keeps the first of several equal windows despite
// rounding in the running sum.
const worstWeekTolerance = 1e-9

// SiteInfo identifies the simulated point.
type SiteInfo struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	TZ   string  `json:"tz"`
	Year int     `json:"year"`
}

// EnergyKWh holds annual energy totals.
type EnergyKWh struct {
	PV       float64 `json:"pv"`
	Wind     float64 `json:"wind"`
	Hydro    float64 `json:"hydro"`
	TotalGen float64 `json:"total_gen"`
	Load     float64 `json:"load"`
	Exports  float64 `json:"exports"`
	Unmet    float64 `json:"unmet"`
}

func (e *EnergyKWh) add(r HourlyRecord) {
	e.PV += r.PV / 1000
	e.Wind += r.Wind / 1000
	e.Hydro += r.Hydro / 1000
	e.TotalGen += r.GenTotal / 1000
	e.Load += r.Load / 1000
	e.Exports += r.ExportW / 1000
	e.Unmet += r.UnmetW / 1000
}

// BatteryStats are the battery figures of the summary.
type BatteryStats struct {
	EMaxWh       float64 `json:"E_max_Wh"`
	SoCMinPct    float64 `json:"soc_min_pct"`
	SoCMaxPct    float64 `json:"soc_max_pct"`
	CyclesApprox float64 `json:"cycles_approx"`
}

// MonthlyEnergy is one calendar month of energy totals.
type MonthlyEnergy struct {
	Month string `json:"month"`
	EnergyKWh
}

// Summary is the reduction of a completed run.
type Summary struct {
	Site             SiteInfo                 `json:"site"`
	EnergyKWh        EnergyKWh                `json:"energy_kwh"`
	Battery          BatteryStats             `json:"battery"`
	WorstWeekStart   *time.Time               `json:"worst_week_start"`
	CurrentSource    string                   `json:"current_source"`
	MonthlyKWh       []MonthlyEnergy          `json:"monthly_kwh"`
	SoCHoursByBucket map[int]float64          `json:"soc_hours_by_bucket"`
	DiurnalProfiles  map[string]solar.Profile `json:"diurnal_profiles"`
}

// Summarize reduces the hourly records. cycles is the dispatch's
// accumulated cycle count.
func Summarize(records []HourlyRecord, cfg BatteryConfig, cycles float64) Summary {
	s := Summary{
		Battery: BatteryStats{
			EMaxWh:       cfg.EMax(),
			CyclesApprox: cycles,
		},
		SoCHoursByBucket: make(map[int]float64),
	}

	socMin, socMax := math.Inf(1), math.Inf(-1)
	monthIdx := make(map[string]int)
	for _, r := range records {
		s.EnergyKWh.add(r)

		socMin = math.Min(socMin, r.SoCFrac)
		socMax = math.Max(socMax, r.SoCFrac)
		s.SoCHoursByBucket[SoCBucket(r.SoCFrac*100)]++

		month := r.Time.Format("2006-01")
		i, ok := monthIdx[month]
		if !ok {
			i = len(s.MonthlyKWh)
			monthIdx[month] = i
			s.MonthlyKWh = append(s.MonthlyKWh, MonthlyEnergy{Month: month})
		}
		s.MonthlyKWh[i].add(r)
	}
	if len(records) > 0 {
		s.Battery.SoCMinPct = socMin * 100
		s.Battery.SoCMaxPct = socMax * 100
	}

	if start, ok := WorstWeek(records); ok {
		ts := records[start].Time
		s.WorstWeekStart = &ts
	}

	s.DiurnalProfiles = diurnalProfiles(records)
	return s
}

// WorstWeek returns the index of the first hour of the 168-hour window with
// the lowest mean SoC fraction. The earliest window wins ties. It reports
// false when there are fewer records than one window.
func WorstWeek(records []HourlyRecord) (int, bool) {
	if len(records) < WorstWeekHours {
		return 0, false
	}

	var sum float64
	for _, r := range records[:WorstWeekHours] {
		sum += r.SoCFrac
	}
	best, bestStart := sum, 0
	for end := WorstWeekHours; end < len(records); end++ {
		sum += records[end].SoCFrac - records[end-WorstWeekHours].SoCFrac
		if sum < best-worstWeekTolerance {
			best = sum
			bestStart = end - WorstWeekHours + 1
		}
	}
	return bestStart, true
}

// WorstWeekSlice returns the records of the worst week, or nil.
func WorstWeekSlice(records []HourlyRecord) []HourlyRecord {
	start, ok := WorstWeek(records)
	if !ok {
		return nil
	}
	return records[start : start+WorstWeekHours]
}

func diurnalProfiles(records []HourlyRecord) map[string]solar.Profile {
	times := make([]time.Time, len(records))
	series := map[string][]float64{
		"pv":    make([]float64, len(records)),
		"wind":  make([]float64, len(records)),
		"hydro": make([]float64, len(records)),
		"load":  make([]float64, len(records)),
	}
	for i, r := range records {
		times[i] = r.Time
		series["pv"][i] = r.PV
		series["wind"][i] = r.Wind
		series["hydro"][i] = r.Hydro
		series["load"][i] = r.Load
	}

	profiles := make(map[string]solar.Profile, len(series))
	for name, power := range series {
		profiles[name] = solar.BuildProfile(times, power)
	}
	return profiles
}
