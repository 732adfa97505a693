package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSunPosition_EquinoxNoonOverEquator(t *testing.T) {
	pos := SunPosition(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), 0, 0)

	assert.InDelta(t, 0, pos.Declination, 0.5)
	assert.Less(t, pos.Zenith, 3.0, "sun should be nearly overhead")
}

func TestSunPosition_SummerSolsticeNoon(t *testing.T) {
	pos := SunPosition(time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC), 50.7, 0)

	assert.InDelta(t, 23.44, pos.Declination, 0.1)
	assert.InDelta(t, 50.7-23.44, pos.Zenith, 0.3)
	assert.InDelta(t, 180, pos.Azimuth, 2, "sun due south at solar noon")

	// refraction lifts the sun slightly
	assert.Less(t, pos.ApparentZenith, pos.Zenith)
	assert.InDelta(t, pos.Zenith, pos.ApparentZenith, 0.05)
	assert.InDelta(t, 90-pos.ApparentZenith, pos.Elevation(), 1e-9)
}

func TestSunPosition_MorningEastAfternoonWest(t *testing.T) {
	morning := SunPosition(time.Date(2024, 6, 21, 7, 0, 0, 0, time.UTC), 50.7, 0)
	afternoon := SunPosition(time.Date(2024, 6, 21, 17, 0, 0, 0, time.UTC), 50.7, 0)

	assert.Greater(t, morning.Azimuth, 0.0)
	assert.Less(t, morning.Azimuth, 180.0)
	assert.Greater(t, afternoon.Azimuth, 180.0)
	assert.Less(t, afternoon.Azimuth, 360.0)
}

func TestSunPosition_Midnight(t *testing.T) {
	pos := SunPosition(time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), 50.7, 0)
	assert.Greater(t, pos.Zenith, 90.0)
}

func TestSunPosition_ZoneIndependent(t *testing.T) {
	utc := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("Etc/GMT-2", 2*3600))

	assert.Equal(t, SunPosition(utc, 40, 30), SunPosition(local, 40, 30))
}
