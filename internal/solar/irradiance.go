package solar

import (
	"math"
	"time"
)

// SolarConstant in W/m².
const SolarConstant = 1367.0

// DefaultAlbedo is the ground reflectance used for the reflected component.
const DefaultAlbedo = 0.25

// ExtraterrestrialDNI returns the top-of-atmosphere normal irradiance for the
// day of year, using Spencer's (1971) eccentricity correction.
func ExtraterrestrialDNI(ts time.Time) float64 {
	b := 2 * math.Pi * float64(ts.YearDay()) / 365
	return SolarConstant * (1.00011 +
		0.034221*math.Cos(b) + 0.00128*math.Sin(b) +
		0.000719*math.Cos(2*b) + 0.000077*math.Sin(2*b))
}

// AOIProjection returns the cosine of the angle of incidence between the sun
// and a surface normal. All angles in degrees.
func AOIProjection(tilt, surfaceAz, zenith, sunAz float64) float64 {
	z := rad(zenith)
	t := rad(tilt)
	return clamp(math.Cos(z)*math.Cos(t)+math.Sin(z)*math.Sin(t)*math.Cos(rad(sunAz-surfaceAz)), -1, 1)
}

// POA holds plane-of-array irradiance components in W/m².
type POA struct {
	Global  float64
	Beam    float64
	Diffuse float64
	Ground  float64
}

// Transpose projects horizontal irradiance onto a tilted plane. Sky diffuse
// uses the Hay-Davies anisotropic model. Negative inputs count as zero.
func Transpose(tilt, surfaceAz float64, pos Position, ghi, dni, dhi, dniExtra, albedo float64) POA {
	ghi = math.Max(ghi, 0)
	dni = math.Max(dni, 0)
	dhi = math.Max(dhi, 0)

	cosAOI := math.Max(AOIProjection(tilt, surfaceAz, pos.ApparentZenith, pos.Azimuth), 0)
	cosZen := math.Cos(rad(pos.ApparentZenith))

	var beam float64
	if cosZen > 0 {
		beam = dni * cosAOI
	}

	var anisotropy float64
	if dniExtra > 0 {
		anisotropy = math.Min(dni/dniExtra, 1)
	}
	rb := cosAOI / math.Max(cosZen, 0.01745)
	cosTilt := math.Cos(rad(tilt))
	diffuse := dhi * (anisotropy*rb + (1-anisotropy)*(1+cosTilt)/2)

	ground := ghi * albedo * (1 - cosTilt) / 2

	return POA{
		Global:  math.Max(beam+diffuse+ground, 0),
		Beam:    beam,
		Diffuse: math.Max(diffuse, 0),
		Ground:  math.Max(ground, 0),
	}
}
