package simulator

import (
	"fmt"
	"math"
	"time"
)

// BatteryConfig holds the user-configurable parameters.
type BatteryConfig struct {
	CapacityWh     float64 `json:"capacity_wh" yaml:"capacity_wh"`
	UsableDoDFrac  float64 `json:"usable_dod_frac" yaml:"usable_dod_frac"`
	RoundTripEff   float64 `json:"round_trip_eff" yaml:"round_trip_eff"`
	MaxChargeKW    float64 `json:"max_charge_kw" yaml:"max_charge_kw"`
	MaxDischargeKW float64 `json:"max_discharge_kw" yaml:"max_discharge_kw"`
}

func (c BatteryConfig) Validate() error {
	if c.CapacityWh < 0 {
		return fmt.Errorf("battery: capacity_wh must be >= 0, got %v", c.CapacityWh)
	}
	if c.UsableDoDFrac < 0 || c.UsableDoDFrac > 1 {
		return fmt.Errorf("battery: usable_dod_frac must be in [0,1], got %v", c.UsableDoDFrac)
	}
	if c.RoundTripEff < 0 || c.RoundTripEff > 1 {
		return fmt.Errorf("battery: round_trip_eff must be in [0,1], got %v", c.RoundTripEff)
	}
	if c.MaxChargeKW < 0 || c.MaxDischargeKW < 0 {
		return fmt.Errorf("battery: power limits must be >= 0, got %v/%v kW", c.MaxChargeKW, c.MaxDischargeKW)
	}
	return nil
}

// EMax is the usable energy in Wh.
func (c BatteryConfig) EMax() float64 {
	return c.CapacityWh * c.UsableDoDFrac
}

// LegEff is the one-way efficiency: round-trip losses are split evenly
// between charging and discharging.
func (c BatteryConfig) LegEff() float64 {
	return math.Sqrt(math.Max(c.RoundTripEff, 0))
}

// BatteryState is carried from one hour to the next.
type BatteryState struct {
	SoCWh     float64 `json:"soc_wh"`
	PrevSoCWh float64 `json:"prev_soc_wh"`
	Cycles    float64 `json:"cycles"`
}

// InitialState starts the battery half full.
func InitialState(c BatteryConfig) BatteryState {
	soc := 0.5 * c.EMax()
	return BatteryState{SoCWh: soc, PrevSoCWh: soc}
}

// StepResult holds one hour's power flows in W. A one-hour step makes W and
// Wh numerically equal.
type StepResult struct {
	ChargeW    float64
	DischargeW float64
	ExportW    float64
	UnmetW     float64
}

// Step advances the battery by one hour given total generation and load.
// Surplus up to the charge limit is charge power; only the stored energy is
// capped by the remaining headroom. Surplus beyond the charge limit is
// exported. A deficit is drawn
// from the battery up to the discharge limit and the stored energy; what it
// cannot supply is unmet.
func Step(c BatteryConfig, s BatteryState, genW, loadW float64) (BatteryState, StepResult) {
	eMax := c.EMax()
	eta := c.LegEff()
	surplus := genW - loadW

	var r StepResult
	if surplus >= 0 {
		charge := math.Min(surplus, c.MaxChargeKW*1000)
		headroom := math.Max(eMax-s.SoCWh, 0)
		s.SoCWh += math.Min(charge*eta, headroom)
		r.ChargeW = charge
		r.ExportW = surplus - charge
	} else {
		deficit := -surplus
		need := math.Min(deficit, c.MaxDischargeKW*1000)
		available := math.Max(s.SoCWh, 0) * eta
		used := math.Min(need, available)
		if used > 0 {
			s.SoCWh -= used / eta
		}
		r.DischargeW = used
		r.UnmetW = math.Max(deficit-used, 0)
	}

	s.SoCWh = math.Max(0, math.Min(s.SoCWh, eMax))

	if eMax > 0 {
		s.Cycles += math.Abs(s.SoCWh-s.PrevSoCWh) / (2 * eMax)
	}
	s.PrevSoCWh = s.SoCWh
	return s, r
}

// SoCFraction returns soc as a fraction of EMax, 0 for a zero-size battery.
func (c BatteryConfig) SoCFraction(socWh float64) float64 {
	eMax := c.EMax()
	if eMax <= 0 {
		return 0
	}
	return socWh / eMax
}

// BatterySummary holds occupancy statistics for reporting.
type BatterySummary struct {
	SoCPercent       float64                    `json:"soc_percent"`
	Cycles           float64                    `json:"cycles"`
	ChargedWh        float64                    `json:"charged_wh"`
	DischargedWh     float64                    `json:"discharged_wh"`
	TimeAtSoCPctHrs  map[int]float64            `json:"time_at_soc_pct_hours"`
	MonthSoCHours    map[string]map[int]float64 `json:"month_soc_hours"`
	TimeAtPowerHours map[int]float64            `json:"time_at_power_hours"`
}

// Battery wraps Step with the state and statistics of a whole run.
type Battery struct {
	config BatteryConfig
	State  BatteryState

	// Stats
	ChargedWh        float64
	DischargedWh     float64
	TimeAtSoCPctHrs  map[int]float64            // 10% buckets
	MonthSoCHours    map[string]map[int]float64 // "2024-11" → {10: 24}
	TimeAtPowerHours map[int]float64            // 1 kW buckets, positive = discharge
}

// NewBattery creates a half-full battery.
func NewBattery(cfg BatteryConfig) *Battery {
	b := &Battery{config: cfg}
	b.Reset()
	return b
}

func (b *Battery) Config() BatteryConfig { return b.config }

// Process runs one hour ending at the state recorded for ts.
func (b *Battery) Process(genW, loadW float64, ts time.Time) StepResult {
	var r StepResult
	b.State, r = Step(b.config, b.State, genW, loadW)

	b.ChargedWh += r.ChargeW
	b.DischargedWh += r.DischargeW
	b.recordStats(ts, r.DischargeW-r.ChargeW)
	return r
}

// SoCPercent returns the state of charge as a percentage of usable energy.
func (b *Battery) SoCPercent() float64 {
	return b.config.SoCFraction(b.State.SoCWh) * 100
}

// recordStats adds one hour to the SoC and power histograms.
func (b *Battery) recordStats(ts time.Time, powerW float64) {
	powerKW := int(math.Round(powerW / 1000))
	b.TimeAtPowerHours[powerKW]++

	socBucket := SoCBucket(b.SoCPercent())
	b.TimeAtSoCPctHrs[socBucket]++

	month := ts.Format("2006-01")
	if b.MonthSoCHours[month] == nil {
		b.MonthSoCHours[month] = make(map[int]float64)
	}
	b.MonthSoCHours[month][socBucket]++
}

// SoCBucket rounds a percentage down to its 10% bucket, within [0, 100].
func SoCBucket(pct float64) int {
	bucket := int(math.Floor(pct/10)) * 10
	if bucket < 0 {
		bucket = 0
	}
	if bucket > 100 {
		bucket = 100
	}
	return bucket
}

// Cycles returns the equivalent full cycle count.
func (b *Battery) Cycles() float64 {
	return b.State.Cycles
}

// Summary returns the current battery statistics.
func (b *Battery) Summary() BatterySummary {
	return BatterySummary{
		SoCPercent:       b.SoCPercent(),
		Cycles:           b.Cycles(),
		ChargedWh:        b.ChargedWh,
		DischargedWh:     b.DischargedWh,
		TimeAtSoCPctHrs:  b.TimeAtSoCPctHrs,
		MonthSoCHours:    b.MonthSoCHours,
		TimeAtPowerHours: b.TimeAtPowerHours,
	}
}

// Reset clears state and stats, returning to half charge.
func (b *Battery) Reset() {
	b.State = InitialState(b.config)
	b.ChargedWh = 0
	b.DischargedWh = 0
	b.TimeAtSoCPctHrs = make(map[int]float64)
	b.MonthSoCHours = make(map[string]map[int]float64)
	b.TimeAtPowerHours = make(map[int]float64)
}
