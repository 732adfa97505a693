package solar

import (
	"math"
	"time"
)

// Position is the sun's location seen from a site. Angles are in degrees;
// azimuth is measured clockwise from north.
type Position struct {
	Zenith         float64
	ApparentZenith float64
	Azimuth        float64
	Declination    float64
}

// Elevation returns the refraction-corrected solar elevation.
func (p Position) Elevation() float64 {
	return 90 - p.ApparentZenith
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(r float64) float64   { return r * 180 / math.Pi }

// SunPosition computes the solar position with the NOAA general solar
// position algorithm. It is accurate to about 0.01° for years 1901-2099.
func SunPosition(ts time.Time, lat, lon float64) Position {
	utc := ts.UTC()
	jd := float64(utc.UnixNano())/86400e9 + 2440587.5
	jc := (jd - 2451545) / 36525

	meanLong := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360)
	meanAnom := 357.52911 + jc*(35999.05029-0.0001537*jc)
	eccent := 0.016708634 - jc*(0.000042037+0.0000001267*jc)

	m := rad(meanAnom)
	eqCenter := math.Sin(m)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*m)*(0.019993-0.000101*jc) +
		math.Sin(3*m)*0.000289

	trueLong := meanLong + eqCenter
	omega := rad(125.04 - 1934.136*jc)
	appLong := trueLong - 0.00569 - 0.00478*math.Sin(omega)

	meanObliq := 23 + (26+(21.448-jc*(46.815+jc*(0.00059-jc*0.001813)))/60)/60
	obliq := rad(meanObliq + 0.00256*math.Cos(omega))

	decl := math.Asin(math.Sin(obliq) * math.Sin(rad(appLong)))

	y := math.Pow(math.Tan(obliq/2), 2)
	l0 := rad(meanLong)
	eqTime := 4 * deg(y*math.Sin(2*l0)-
		2*eccent*math.Sin(m)+
		4*eccent*y*math.Sin(m)*math.Cos(2*l0)-
		0.5*y*y*math.Sin(4*l0)-
		1.25*eccent*eccent*math.Sin(2*m))

	minutes := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60
	trueSolar := math.Mod(minutes+eqTime+4*lon, 1440)
	if trueSolar < 0 {
		trueSolar += 1440
	}

	hourAngle := trueSolar/4 - 180

	phi := rad(lat)
	cosZen := math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Cos(rad(hourAngle))
	zen := math.Acos(clamp(cosZen, -1, 1))

	var azimuth float64
	denom := math.Cos(phi) * math.Sin(zen)
	if math.Abs(denom) < 1e-12 {
		azimuth = 180
	} else {
		a := deg(math.Acos(clamp((math.Sin(phi)*math.Cos(zen)-math.Sin(decl))/denom, -1, 1)))
		if hourAngle > 0 {
			azimuth = math.Mod(a+180, 360)
		} else {
			azimuth = math.Mod(540-a, 360)
		}
	}

	zenith := deg(zen)
	return Position{
		Zenith:         zenith,
		ApparentZenith: zenith - refraction(90-zenith),
		Azimuth:        azimuth,
		Declination:    deg(decl),
	}
}

// refraction returns the atmospheric refraction correction in degrees for a
// geometric elevation.
func refraction(elev float64) float64 {
	var arcsec float64
	te := math.Tan(rad(elev))
	switch {
	case elev > 85:
		return 0
	case elev > 5:
		arcsec = 58.1/te - 0.07/math.Pow(te, 3) + 0.000086/math.Pow(te, 5)
	case elev > -0.575:
		arcsec = 1735 + elev*(-518.2+elev*(103.4+elev*(-12.79+elev*0.711)))
	default:
		arcsec = -20.772 / te
	}
	return arcsec / 3600
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
