// Package config loads run configuration from YAML and turns it into a
// simulator.RunConfig with its data sources.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hybrid_simulator/internal/cache"
	"hybrid_simulator/internal/currents"
	"hybrid_simulator/internal/hydro"
	"hybrid_simulator/internal/ingest"
	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/simulator"
	"hybrid_simulator/internal/solar"
	"hybrid_simulator/internal/weather"
	"hybrid_simulator/internal/wind"
)

// Environment variables read by Path and Load.
const (
	EnvConfig    = "SIM_CONFIG"
	EnvCacheDir  = "SIM_CACHE_DIR"
	EnvRedisAddr = "SIM_REDIS_ADDR"
)

// Environment source names.
const (
	EnvSourceNASAPower = "nasa-power"
	EnvSourceCSV       = "csv"
	EnvSourceNone      = "none"
)

// File is the on-disk configuration. File paths and cache settings are not
// exposed over JSON so that remote clients can only set model parameters.
type File struct {
	Site        model.Site              `yaml:"site" json:"site"`
	Toggles     simulator.Toggles       `yaml:"toggles" json:"toggles"`
	PV          solar.PVParams          `yaml:"pv" json:"pv"`
	Wind        wind.Params             `yaml:"wind" json:"wind"`
	Hydro       hydro.Params            `yaml:"hydro" json:"hydro"`
	Battery     simulator.BatteryConfig `yaml:"battery" json:"battery"`
	Load        Load                    `yaml:"load" json:"load"`
	Environment Environment             `yaml:"environment" json:"environment"`
	Currents    Currents                `yaml:"currents" json:"currents"`
	Cache       Cache                   `yaml:"cache" json:"-"`
}

type Load struct {
	DailyKWh float64 `yaml:"daily_kwh" json:"daily_kwh"`
}

// Environment selects the meteorological source and optional overrides.
type Environment struct {
	// Source is one of "nasa-power", "csv" or "none".
	Source       string `yaml:"source" json:"source"`
	NASAPowerURL string `yaml:"nasa_power_url" json:"-"`
	// CSV is the table read when Source is "csv".
	CSV              string `yaml:"csv" json:"-"`
	SolarOverrideCSV string `yaml:"solar_override_csv" json:"-"`
	WindOverrideCSV  string `yaml:"wind_override_csv" json:"-"`
}

// Currents configures the current providers, tried in the order uploaded,
// synthetic, Open-Meteo marine, ERDDAP.
type Currents struct {
	UploadedCSV string            `yaml:"uploaded_csv" json:"-"`
	Synthetic   SyntheticCurrents `yaml:"synthetic" json:"synthetic"`
	OpenMeteo   OpenMeteo         `yaml:"open_meteo" json:"open_meteo"`
	ERDDAP      ERDDAP            `yaml:"erddap" json:"erddap"`
}

type SyntheticCurrents struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	MeanSpeed float64 `yaml:"mean_speed" json:"mean_speed"`
	PeakSpeed float64 `yaml:"peak_speed" json:"peak_speed"`
}

type OpenMeteo struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	URL     string `yaml:"url" json:"-"`
}

type ERDDAP struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	URL       string `yaml:"url" json:"-"`
	DatasetID string `yaml:"dataset_id" json:"-"`
}

// Cache configures where remote responses are kept. RedisAddr takes
// precedence over Dir; both empty disables caching.
type Cache struct {
	Dir       string        `yaml:"dir"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// Default returns the stock configuration: a small coastal site in south
// west England with six panels, one small turbine, one tidal rotor and a
// 10 kWh battery.
func Default() File {
	return File{
		Site:    model.Site{Lat: 50.7, Lon: -3.5, Year: 2024},
		Toggles: simulator.Toggles{PV: true, Wind: true, Hydro: true},
		PV: solar.PVParams{
			PanelWp:           400,
			Count:             6,
			TiltDeg:           30,
			AzimuthDeg:        180,
			GammaPctPerC:      -0.35,
			NOCTC:             45,
			ModuleEff:         0.20,
			DCLossFrac:        0.06,
			MPPTEff:           0.97,
			InverterEff:       0.96,
			MiscPRFrac:        0.05,
			FouledMinPct:      5,
			FouledMaxPct:      60,
			CleaningCycleDays: 30,
			Albedo:            solar.DefaultAlbedo,
		},
		Wind: wind.Params{
			HubHeightM:   12,
			RoughnessZ0:  0.0002,
			CutIn:        3,
			RatedSpeed:   12,
			CutOut:       25,
			RatedPowerW:  600,
			SystemEff:    0.90,
			Availability: 0.95,
			Count:        1,
		},
		Hydro: hydro.Params{
			RotorDiameterM: 0.4,
			Cp:             0.35,
			MechElecEff:    0.85,
			Availability:   0.90,
			Count:          1,
		},
		Battery: simulator.BatteryConfig{
			CapacityWh:     10000,
			UsableDoDFrac:  0.9,
			RoundTripEff:   0.92,
			MaxChargeKW:    1.5,
			MaxDischargeKW: 2.0,
		},
		Load: Load{DailyKWh: 6},
		Environment: Environment{
			Source:       EnvSourceNASAPower,
			NASAPowerURL: weather.DefaultNASAPowerURL,
		},
		Currents: Currents{
			Synthetic: SyntheticCurrents{MeanSpeed: 0.5, PeakSpeed: 1.5},
			OpenMeteo: OpenMeteo{Enabled: true, URL: currents.DefaultOpenMeteoURL},
		},
		Cache: Cache{Dir: "cache", TTL: 30 * 24 * time.Hour},
	}
}

// Path returns flagValue, or $SIM_CONFIG when the flag is empty.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfig)
}

// Load reads path over Default, applies environment overrides and
// validates. An empty path yields the defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f *File) applyEnv() {
	if v := os.Getenv(EnvCacheDir); v != "" {
		f.Cache.Dir = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		f.Cache.RedisAddr = v
	}
}

// Validate checks every parameter block, including disabled ones, and the
// source selection.
func (f File) Validate() error {
	var errs []error
	all := f.params()
	all.Toggles = simulator.Toggles{PV: true, Wind: true, Hydro: true}
	if err := all.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch f.Environment.Source {
	case EnvSourceNASAPower, EnvSourceNone:
	case EnvSourceCSV:
		if f.Environment.CSV == "" {
			errs = append(errs, errors.New("environment: csv source needs a csv path"))
		}
	default:
		errs = append(errs, fmt.Errorf("environment: unknown source %q", f.Environment.Source))
	}

	syn := f.Currents.Synthetic
	if syn.MeanSpeed < 0 || syn.PeakSpeed < 0 {
		errs = append(errs, fmt.Errorf("currents: synthetic speeds must be >= 0, got %v/%v", syn.MeanSpeed, syn.PeakSpeed))
	}
	if e := f.Currents.ERDDAP; e.Enabled && (e.URL == "" || e.DatasetID == "") {
		errs = append(errs, errors.New("currents: erddap needs url and dataset_id"))
	}
	if f.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache: ttl must be >= 0, got %s", f.Cache.TTL))
	}
	return errors.Join(errs...)
}

// params returns the run configuration without data sources.
func (f File) params() simulator.RunConfig {
	return simulator.RunConfig{
		Site:         f.Site,
		PV:           f.PV,
		Wind:         f.Wind,
		Hydro:        f.Hydro,
		Battery:      f.Battery,
		DailyLoadKWh: f.Load.DailyKWh,
		Toggles:      f.Toggles,
	}
}

// OpenCache opens the configured response cache. The returned func releases
// it.
func (f File) OpenCache(ctx context.Context) (cache.Cache, func() error, error) {
	nop := func() error { return nil }
	switch {
	case f.Cache.RedisAddr != "":
		r, err := cache.DialRedis(ctx, f.Cache.RedisAddr, f.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case f.Cache.Dir != "":
		c, err := cache.NewFile(f.Cache.Dir, f.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		return c, nop, nil
	default:
		return cache.Nop{}, nop, nil
	}
}

// RunConfig builds the run, reading any configured CSV tables. Remote
// sources fetch through getter.
func (f File) RunConfig(getter remote.Getter) (simulator.RunConfig, error) {
	rc := f.params()

	var err error
	switch f.Environment.Source {
	case EnvSourceNASAPower:
		rc.Environment = &weather.NASAPower{APIURL: f.Environment.NASAPowerURL, Getter: getter}
	case EnvSourceCSV:
		tbl, err := ingest.ReadFile(f.Environment.CSV, model.EnvironmentColumns...)
		if err != nil {
			return rc, fmt.Errorf("environment table: %w", err)
		}
		rc.Environment = weather.TableSource{Label: "csv", Table: tbl}
	}

	if p := f.Environment.SolarOverrideCSV; p != "" {
		if rc.SolarOverride, err = ingest.ReadFile(p, model.SolarOverrideColumns...); err != nil {
			return rc, fmt.Errorf("solar override: %w", err)
		}
	}
	if p := f.Environment.WindOverrideCSV; p != "" {
		if rc.WindOverride, err = ingest.ReadFile(p, model.WindOverrideColumns...); err != nil {
			return rc, fmt.Errorf("wind override: %w", err)
		}
	}

	rc.Currents, err = f.currentProviders(getter)
	if err != nil {
		return rc, err
	}
	return rc, nil
}

func (f File) currentProviders(getter remote.Getter) ([]currents.Provider, error) {
	var providers []currents.Provider
	c := f.Currents

	if c.UploadedCSV != "" {
		tbl, err := ingest.ReadFile(c.UploadedCSV, model.ColCurrentU, model.ColCurrentV, model.ColCurrentSpeed)
		if err != nil {
			return nil, fmt.Errorf("uploaded currents: %w", err)
		}
		providers = append(providers, currents.Uploaded{Table: tbl})
	}
	if c.Synthetic.Enabled {
		providers = append(providers, currents.Synthetic{MeanSpeed: c.Synthetic.MeanSpeed, PeakSpeed: c.Synthetic.PeakSpeed})
	}
	if c.OpenMeteo.Enabled {
		url := c.OpenMeteo.URL
		if url == "" {
			url = currents.DefaultOpenMeteoURL
		}
		providers = append(providers, &currents.OpenMeteoMarine{APIURL: url, Lat: f.Site.Lat, Lon: f.Site.Lon, Getter: getter})
	}
	if c.ERDDAP.Enabled {
		providers = append(providers, &currents.ERDDAP{
			BaseURL:   c.ERDDAP.URL,
			DatasetID: c.ERDDAP.DatasetID,
			Lat:       f.Site.Lat,
			Lon:       f.Site.Lon,
			Getter:    getter,
		})
	}
	return providers, nil
}

// Marshal renders f as YAML.
func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
