package solar

import (
	"math"
	"time"
)

// Profile is the average diurnal shape of an hourly power series.
type Profile struct {
	// HourlyMean holds the average power (W) for each local hour [0-23].
	HourlyMean [24]float64 `json:"hourly_mean_w"`
	// HourlyFactor is HourlyMean normalized so the peak hour is 1.0.
	HourlyFactor [24]float64 `json:"hourly_factor"`
	// PeakHour is the hour with the highest average power.
	PeakHour int `json:"peak_hour"`
}

// BuildProfile averages power by hour of day, in the zone of each
// timestamp. Months, when given, restrict which samples contribute.
func BuildProfile(times []time.Time, power []float64, months ...time.Month) Profile {
	include := func(time.Month) bool { return true }
	if len(months) > 0 {
		set := make(map[time.Month]bool, len(months))
		for _, m := range months {
			set[m] = true
		}
		include = func(m time.Month) bool { return set[m] }
	}

	var hourSum [24]float64
	var hourCount [24]int
	for i, ts := range times {
		if i >= len(power) || !include(ts.Month()) {
			continue
		}
		h := ts.Hour()
		hourSum[h] += power[i]
		hourCount[h]++
	}

	var p Profile
	var maxAvg float64
	for h := 0; h < 24; h++ {
		if hourCount[h] == 0 {
			continue
		}
		avg := hourSum[h] / float64(hourCount[h])
		p.HourlyMean[h] = avg
		if avg > maxAvg {
			maxAvg = avg
			p.PeakHour = h
		}
	}

	if maxAvg > 0 {
		for h := 0; h < 24; h++ {
			p.HourlyFactor[h] = p.HourlyMean[h] / maxAvg
		}
	}
	return p
}

// PowerAt returns the interpolated average power for a fractional hour.
func (p *Profile) PowerAt(hour float64) float64 {
	return math.Max(interpolateProfile(p.HourlyMean, hour), 0)
}

// interpolateProfile returns linearly interpolated value for a fractional hour.
func interpolateProfile(values [24]float64, hour float64) float64 {
	hour = math.Mod(hour, 24)
	if hour < 0 {
		hour += 24
	}

	lo := int(math.Floor(hour)) % 24
	hi := (lo + 1) % 24
	frac := hour - math.Floor(hour)

	return values[lo]*(1-frac) + values[hi]*frac
}
