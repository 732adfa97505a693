// Package wind models a small wind turbine fleet from 10 m wind speed.
package wind

import (
	"fmt"
	"math"
)

// InterferenceThresholdW is the PV output above which wind is curtailed when
// interference is enabled.
const InterferenceThresholdW = 50.0

// ReferenceHeight is the height of the input wind speed, in m.
const ReferenceHeight = 10.0

const (
	shearEps = 1e-6
	minWind  = 0.01
)

// Params describes the turbines.
type Params struct {
	HubHeightM   float64 `json:"hub_height_m" yaml:"hub_height_m"`
	RoughnessZ0  float64 `json:"roughness_z0" yaml:"roughness_z0"`
	CutIn        float64 `json:"cut_in" yaml:"cut_in"`
	RatedSpeed   float64 `json:"rated_speed" yaml:"rated_speed"`
	CutOut       float64 `json:"cut_out" yaml:"cut_out"`
	RatedPowerW  float64 `json:"rated_power_w" yaml:"rated_power_w"`
	SystemEff    float64 `json:"system_eff" yaml:"system_eff"`
	Availability float64 `json:"availability" yaml:"availability"`
	Count        int     `json:"count" yaml:"count"`
}

func (p Params) Validate() error {
	if p.HubHeightM <= 0 {
		return fmt.Errorf("wind: hub_height_m must be > 0, got %v", p.HubHeightM)
	}
	if p.RoughnessZ0 < 0 {
		return fmt.Errorf("wind: roughness_z0 must be >= 0, got %v", p.RoughnessZ0)
	}
	if p.CutIn < 0 || p.RatedSpeed <= p.CutIn || p.CutOut < p.RatedSpeed {
		return fmt.Errorf("wind: need 0 <= cut_in < rated_speed <= cut_out, got %v/%v/%v", p.CutIn, p.RatedSpeed, p.CutOut)
	}
	if p.RatedPowerW < 0 {
		return fmt.Errorf("wind: rated_power_w must be >= 0, got %v", p.RatedPowerW)
	}
	if p.SystemEff < 0 || p.SystemEff > 1 {
		return fmt.Errorf("wind: system_eff must be in [0,1], got %v", p.SystemEff)
	}
	if p.Availability < 0 || p.Availability > 1 {
		return fmt.Errorf("wind: availability must be in [0,1], got %v", p.Availability)
	}
	if p.Count < 0 {
		return fmt.Errorf("wind: count must be >= 0, got %d", p.Count)
	}
	return nil
}

// ShearToHeight extrapolates a 10 m wind speed to hub height with the
// logarithmic profile. Calm readings are floored at 0.01 m/s.
func ShearToHeight(ws10, hubHeight, z0 float64) float64 {
	factor := math.Log((hubHeight+shearEps)/(z0+shearEps)) / math.Log(ReferenceHeight/(z0+shearEps))
	return math.Max(ws10, minWind) * factor
}

// CurvePower returns a single turbine's output at hub-height speed: a cubic
// ramp from cut-in to rated, flat rated power up to and including cut-out,
// and zero elsewhere. Losses are not applied.
func (p Params) CurvePower(speed float64) float64 {
	speed = math.Max(speed, 0)
	switch {
	case speed >= p.CutIn && speed < p.RatedSpeed:
		return p.RatedPowerW * math.Pow((speed-p.CutIn)/(p.RatedSpeed-p.CutIn), 3)
	case speed >= p.RatedSpeed && speed <= p.CutOut:
		return p.RatedPowerW
	default:
		return 0
	}
}

// Power returns fleet output in W for each 10 m wind speed.
func Power(ws10 []float64, p Params) []float64 {
	scale := p.SystemEff * p.Availability * float64(p.Count)
	out := make([]float64, len(ws10))
	for i, ws := range ws10 {
		hub := ShearToHeight(ws, p.HubHeightM, p.RoughnessZ0)
		out[i] = p.CurvePower(hub) * scale
	}
	return out
}

// ApplyInterference zeroes wind output in place for every hour where PV
// output exceeds InterferenceThresholdW.
func ApplyInterference(wind, pv []float64) {
	for i := range wind {
		if i < len(pv) && pv[i] > InterferenceThresholdW {
			wind[i] = 0
		}
	}
}
