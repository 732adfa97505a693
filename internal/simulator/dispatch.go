package simulator

import (
	"fmt"
	"math"
	"time"
)

// HourlyRecord is one row of the result table.
type HourlyRecord struct {
	Time       time.Time `json:"time"`
	PV         float64   `json:"pv"`
	Wind       float64   `json:"wind"`
	Hydro      float64   `json:"hydro"`
	GenTotal   float64   `json:"gen_total"`
	Load       float64   `json:"load"`
	SoCWh      float64   `json:"soc_Wh"`
	SoCFrac    float64   `json:"soc_frac"`
	ChargeW    float64   `json:"pwr_charge_W"`
	DischargeW float64   `json:"pwr_discharge_W"`
	UnmetW     float64   `json:"unmet_W"`
	ExportW    float64   `json:"export_W"`
}

// Generation holds the per-source hourly power (W) on a shared index.
type Generation struct {
	Times []time.Time
	PV    []float64
	Wind  []float64
	Hydro []float64
}

// NewGeneration returns all-zero series for index.
func NewGeneration(index []time.Time) Generation {
	return Generation{
		Times: index,
		PV:    make([]float64, len(index)),
		Wind:  make([]float64, len(index)),
		Hydro: make([]float64, len(index)),
	}
}

func (g Generation) validate() error {
	n := len(g.Times)
	if len(g.PV) != n || len(g.Wind) != n || len(g.Hydro) != n {
		return fmt.Errorf("generation series lengths differ: %d times, pv %d, wind %d, hydro %d",
			n, len(g.PV), len(g.Wind), len(g.Hydro))
	}
	return nil
}

// Total returns pv + wind + hydro for hour i.
func (g Generation) Total(i int) float64 {
	return g.PV[i] + g.Wind[i] + g.Hydro[i]
}

// ConstantLoad spreads a daily energy evenly over the hours: kWh/24 in W.
func ConstantLoad(n int, dailyKWh float64) []float64 {
	w := math.Max(dailyKWh, 0) / 24 * 1000
	load := make([]float64, n)
	for i := range load {
		load[i] = w
	}
	return load
}

// Dispatch folds the battery over the hours in order and returns one record
// per hour. Hours must be chronological.
func Dispatch(gen Generation, load []float64, b *Battery) ([]HourlyRecord, error) {
	if err := gen.validate(); err != nil {
		return nil, err
	}
	if len(load) != len(gen.Times) {
		return nil, fmt.Errorf("load has %d hours, generation %d", len(load), len(gen.Times))
	}

	cfg := b.Config()
	records := make([]HourlyRecord, len(gen.Times))
	for i, ts := range gen.Times {
		total := gen.Total(i)
		r := b.Process(total, load[i], ts)
		records[i] = HourlyRecord{
			Time:       ts,
			PV:         gen.PV[i],
			Wind:       gen.Wind[i],
			Hydro:      gen.Hydro[i],
			GenTotal:   total,
			Load:       load[i],
			SoCWh:      b.State.SoCWh,
			SoCFrac:    cfg.SoCFraction(b.State.SoCWh),
			ChargeW:    r.ChargeW,
			DischargeW: r.DischargeW,
			UnmetW:     r.UnmetW,
			ExportW:    r.ExportW,
		}
	}
	return records, nil
}
