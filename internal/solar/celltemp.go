package solar

// transmittanceAbsorptance is the SAM default τα product for the NOCT model.
const transmittanceAbsorptance = 0.9

// CellTemperatureNOCT estimates cell temperature (°C) with the SAM NOCT
// model for a rack mount well above the roof (no standoff adjustment).
// windSpeed is the 10 m wind speed in m/s.
func CellTemperatureNOCT(poa, airTemp, windSpeed, noct, moduleEff float64) float64 {
	windAdj := 0.51 * windSpeed
	heatLoss := 9.5 / (5.7 + 3.8*windAdj)
	return airTemp + poa/800*(noct-20)*(1-moduleEff/transmittanceAbsorptance)*heatLoss
}
