package model

import (
	"fmt"
	"time"
)

// Column names a physical quantity carried by an hourly table.
type Column string

const (
	ColGHI          Column = "GHI"
	ColDNI          Column = "DNI"
	ColDHI          Column = "DHI"
	ColAirTemp      Column = "T2M_C"
	ColWindSpeed10  Column = "WS10M"
	ColCurrentU     Column = "CURR_U"
	ColCurrentV     Column = "CURR_V"
	ColCurrentSpeed Column = "CURR_SPD"
)

// ColumnInfo holds display name, unit and the value substituted when a
// source does not provide the column at all.
type ColumnInfo struct {
	Name    string
	Unit    string
	Default float64
}

// ColumnCatalog maps every known Column to its display name, unit and default.
var ColumnCatalog = map[Column]ColumnInfo{
	ColGHI:          {Name: "Global Horizontal Irradiance", Unit: "W/m²", Default: 0},
	ColDNI:          {Name: "Direct Normal Irradiance", Unit: "W/m²", Default: 0},
	ColDHI:          {Name: "Diffuse Horizontal Irradiance", Unit: "W/m²", Default: 0},
	ColAirTemp:      {Name: "Air Temperature", Unit: "°C", Default: 15},
	ColWindSpeed10:  {Name: "Wind Speed 10m", Unit: "m/s", Default: 1},
	ColCurrentU:     {Name: "Current Eastward", Unit: "m/s", Default: 0},
	ColCurrentV:     {Name: "Current Northward", Unit: "m/s", Default: 0},
	ColCurrentSpeed: {Name: "Current Speed", Unit: "m/s", Default: 0},
}

// EnvironmentColumns are the columns the generation models read.
var EnvironmentColumns = []Column{ColGHI, ColDNI, ColDHI, ColAirTemp, ColWindSpeed10}

// SolarOverrideColumns may be replaced by an uploaded solar-met table.
var SolarOverrideColumns = []Column{ColGHI, ColDNI, ColDHI, ColAirTemp, ColWindSpeed10}

// WindOverrideColumns may be replaced by an uploaded wind-met table.
var WindOverrideColumns = []Column{ColWindSpeed10}

// EnvironmentalSample is one hour of meteorological input.
type EnvironmentalSample struct {
	Time        time.Time
	GHI         float64
	DNI         float64
	DHI         float64
	AirTempC    float64
	WindSpeed10 float64
}

// CurrentSample is one hour of sea current input.
type CurrentSample struct {
	Time  time.Time
	Speed float64
	U     float64
	V     float64
}

// Site is the fixed geographic point and year being simulated.
type Site struct {
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
	Year int     `json:"year" yaml:"year"`
}

// Validate checks the coordinates and year.
func (s Site) Validate() error {
	if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("site %v,%v out of range", s.Lat, s.Lon)
	}
	if s.Year < 1 {
		return fmt.Errorf("invalid year %d", s.Year)
	}
	return nil
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}
