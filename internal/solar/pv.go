package solar

import (
	"fmt"
	"math"

	"hybrid_simulator/internal/model"
)

// PVParams describes the PV array and its loss chain.
type PVParams struct {
	PanelWp           float64 `json:"panel_wp" yaml:"panel_wp"`
	Count             int     `json:"count" yaml:"count"`
	TiltDeg           float64 `json:"tilt_deg" yaml:"tilt_deg"`
	AzimuthDeg        float64 `json:"azimuth_deg" yaml:"azimuth_deg"`
	GammaPctPerC      float64 `json:"gamma_pct_per_c" yaml:"gamma_pct_per_c"`
	NOCTC             float64 `json:"noct_c" yaml:"noct_c"`
	ModuleEff         float64 `json:"module_eff" yaml:"module_eff"`
	DCLossFrac        float64 `json:"dc_loss_frac" yaml:"dc_loss_frac"`
	MPPTEff           float64 `json:"mppt_eff" yaml:"mppt_eff"`
	InverterEff       float64 `json:"inverter_eff" yaml:"inverter_eff"`
	MiscPRFrac        float64 `json:"misc_pr_frac" yaml:"misc_pr_frac"`
	FouledMinPct      float64 `json:"fouled_min_pct" yaml:"fouled_min_pct"`
	FouledMaxPct      float64 `json:"fouled_max_pct" yaml:"fouled_max_pct"`
	CleaningCycleDays float64 `json:"cleaning_cycle_days" yaml:"cleaning_cycle_days"`
	Albedo            float64 `json:"albedo" yaml:"albedo"`
}

// Validate rejects parameters that cannot describe a physical array.
func (p PVParams) Validate() error {
	if p.PanelWp < 0 {
		return fmt.Errorf("pv: panel_wp must be >= 0, got %v", p.PanelWp)
	}
	if p.Count < 0 {
		return fmt.Errorf("pv: count must be >= 0, got %d", p.Count)
	}
	if p.CleaningCycleDays < 0 {
		return fmt.Errorf("pv: cleaning_cycle_days must be >= 0, got %v", p.CleaningCycleDays)
	}
	for name, f := range map[string]float64{
		"module_eff":   p.ModuleEff,
		"dc_loss_frac": p.DCLossFrac,
		"mppt_eff":     p.MPPTEff,
		"inverter_eff": p.InverterEff,
		"misc_pr_frac": p.MiscPRFrac,
		"albedo":       p.Albedo,
	} {
		if f < 0 || f > 1 {
			return fmt.Errorf("pv: %s must be in [0,1], got %v", name, f)
		}
	}
	for name, f := range map[string]float64{
		"fouled_min_pct": p.FouledMinPct,
		"fouled_max_pct": p.FouledMaxPct,
	} {
		if f < 0 || f > 100 {
			return fmt.Errorf("pv: %s must be in [0,100], got %v", name, f)
		}
	}
	return nil
}

// FoulingPct returns the soiling loss after elapsedDays. Soiling grows
// linearly from FouledMinPct to FouledMaxPct over each cleaning cycle and
// resets. A zero cycle disables fouling.
func (p PVParams) FoulingPct(elapsedDays float64) float64 {
	if p.CleaningCycleDays <= 0 {
		return 0
	}
	pos := math.Mod(elapsedDays, p.CleaningCycleDays)
	return p.FouledMinPct + (p.FouledMaxPct-p.FouledMinPct)*(pos/p.CleaningCycleDays)
}

// PanelPower returns one panel's DC power for a plane-of-array irradiance
// and cell temperature, derated linearly around 25 °C and clipped at zero.
func (p PVParams) PanelPower(poa, cellTemp float64) float64 {
	gamma := p.GammaPctPerC / 100
	return math.Max(p.PanelWp*(poa/1000)*(1+gamma*(cellTemp-25)), 0)
}

// ChainEff is the product of the array-level loss factors, applied after
// panel count: DC loss, misc performance ratio, MPPT then inverter.
func (p PVParams) ChainEff() float64 {
	return (1 - p.DCLossFrac) * (1 - p.MiscPRFrac) * p.MPPTEff * p.InverterEff
}

// Power returns hourly AC output in W for each sample. Fouling is timed from
// the first sample.
func Power(samples []model.EnvironmentalSample, site model.Site, p PVParams) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}

	start := samples[0].Time
	chain := float64(p.Count) * p.ChainEff()
	for i, s := range samples {
		pos := SunPosition(s.Time, site.Lat, site.Lon)
		poa := Transpose(p.TiltDeg, p.AzimuthDeg, pos, s.GHI, s.DNI, s.DHI, ExtraterrestrialDNI(s.Time), p.Albedo)

		cell := CellTemperatureNOCT(poa.Global, s.AirTempC, s.WindSpeed10, p.NOCTC, p.ModuleEff)
		panel := p.PanelPower(poa.Global, cell)

		elapsed := s.Time.Sub(start).Hours() / 24
		panel *= 1 - p.FoulingPct(elapsed)/100

		out[i] = panel * chain
	}
	return out
}
