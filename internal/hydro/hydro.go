// Package hydro models tidal-stream turbines driven by sea current speed.
package hydro

import (
	"fmt"
	"math"
)

// SeawaterDensity in kg/m³.
const SeawaterDensity = 1025.0

// Params describes the rotors.
type Params struct {
	RotorDiameterM float64 `json:"rotor_diameter_m" yaml:"rotor_diameter_m"`
	Cp             float64 `json:"cp" yaml:"cp"`
	MechElecEff    float64 `json:"mech_elec_eff" yaml:"mech_elec_eff"`
	Availability   float64 `json:"availability" yaml:"availability"`
	Count          int     `json:"count" yaml:"count"`
}

func (p Params) Validate() error {
	if p.RotorDiameterM < 0 {
		return fmt.Errorf("hydro: rotor_diameter_m must be >= 0, got %v", p.RotorDiameterM)
	}
	if p.Cp < 0 || p.Cp > 1 {
		return fmt.Errorf("hydro: cp must be in [0,1], got %v", p.Cp)
	}
	if p.MechElecEff < 0 || p.MechElecEff > 1 {
		return fmt.Errorf("hydro: mech_elec_eff must be in [0,1], got %v", p.MechElecEff)
	}
	if p.Availability < 0 || p.Availability > 1 {
		return fmt.Errorf("hydro: availability must be in [0,1], got %v", p.Availability)
	}
	if p.Count < 0 {
		return fmt.Errorf("hydro: count must be >= 0, got %d", p.Count)
	}
	return nil
}

// SweptArea returns the rotor area in m².
func (p Params) SweptArea() float64 {
	r := p.RotorDiameterM / 2
	return math.Pi * r * r
}

// Power returns fleet output in W for each current speed (m/s).
func Power(speed []float64, p Params) []float64 {
	k := 0.5 * SeawaterDensity * p.SweptArea() * p.Cp * p.MechElecEff * p.Availability * float64(p.Count)
	out := make([]float64, len(speed))
	for i, v := range speed {
		v = math.Max(v, 0)
		out[i] = k * v * v * v
	}
	return out
}
