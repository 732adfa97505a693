package timeseries

import (
	"fmt"
	"math"
	"time"
)

// UTCOffsetHours returns the local-time-meridian offset for a longitude:
// 15° per hour, rounded half to even.
func UTCOffsetHours(lon float64) int {
	return int(math.RoundToEven(lon / 15))
}

// ZoneName returns the Etc/GMT zone name for a longitude. The Etc/GMT
// convention inverts the sign: UTC+2 is "Etc/GMT-2".
func ZoneName(lon float64) string {
	offset := UTCOffsetHours(lon)
	if offset >= 0 {
		return fmt.Sprintf("Etc/GMT-%d", offset)
	}
	return fmt.Sprintf("Etc/GMT+%d", -offset)
}

// LocalZone returns a fixed zone for the longitude's local time meridian.
// No timezone database is consulted.
func LocalZone(lon float64) *time.Location {
	return time.FixedZone(ZoneName(lon), UTCOffsetHours(lon)*3600)
}

// HourlyIndex returns every hour of the year in loc, from Jan 1 00:00 to
// Dec 31 23:00.
func HourlyIndex(year int, loc *time.Location) []time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	n := int(end.Sub(start) / time.Hour)

	index := make([]time.Time, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return index
}
