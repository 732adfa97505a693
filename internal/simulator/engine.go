package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hybrid_simulator/internal/currents"
	"hybrid_simulator/internal/hydro"
	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/metrics"
	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/solar"
	"hybrid_simulator/internal/timeseries"
	"hybrid_simulator/internal/weather"
	"hybrid_simulator/internal/wind"
)

// ErrBusy is returned when a run is requested while another is executing.
var ErrBusy = errors.New("simulator: a run is already in progress")

// SourceDisabled is reported as the current source when hydro is off.
const SourceDisabled = "disabled"

// Stage names a step of a run.
type Stage string

const (
	StageEnvironment Stage = "environment"
	StageCurrents    Stage = "currents"
	StageGeneration  Stage = "generation"
	StageDispatch    Stage = "dispatch"
	StageSummary     Stage = "summary"
)

// Toggles switch the generation sources and the solar-wind interference rule.
type Toggles struct {
	PV           bool `json:"pv" yaml:"pv"`
	Wind         bool `json:"wind" yaml:"wind"`
	Hydro        bool `json:"hydro" yaml:"hydro"`
	Interference bool `json:"interference" yaml:"interference"`
}

// RunConfig is everything one run needs. It is not modified by the run.
type RunConfig struct {
	Site         model.Site
	PV           solar.PVParams
	Wind         wind.Params
	Hydro        hydro.Params
	Battery      BatteryConfig
	DailyLoadKWh float64
	Toggles      Toggles

	// Environment provides the base meteorological table. When nil or
	// failing, benign defaults are used.
	Environment weather.Source
	// SolarOverride replaces any of GHI, DNI, DHI, T2M_C and WS10M it holds.
	SolarOverride *timeseries.Table
	// WindOverride replaces WS10M, after SolarOverride.
	WindOverride *timeseries.Table
	// Currents are tried in order for the hydro model.
	Currents []currents.Provider
}

func (rc RunConfig) Validate() error {
	if err := rc.Battery.Validate(); err != nil {
		return err
	}
	if rc.DailyLoadKWh < 0 {
		return fmt.Errorf("daily load must be >= 0, got %v", rc.DailyLoadKWh)
	}
	if err := rc.Site.Validate(); err != nil {
		return err
	}
	if rc.Toggles.PV {
		if err := rc.PV.Validate(); err != nil {
			return err
		}
	}
	if rc.Toggles.Wind {
		if err := rc.Wind.Validate(); err != nil {
			return err
		}
	}
	if rc.Toggles.Hydro {
		if err := rc.Hydro.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Result is a completed run.
type Result struct {
	RunID    uuid.UUID           `json:"run_id"`
	Started  time.Time           `json:"started"`
	Finished time.Time           `json:"finished"`
	Records  []HourlyRecord      `json:"-"`
	Summary  Summary             `json:"summary"`
	Battery  BatterySummary      `json:"battery"`
	Currents currents.Resolution `json:"-"`
}

// Callback receives run events. Calls are made from the goroutine running
// the simulation, in order.
type Callback interface {
	OnStage(runID uuid.UUID, stage Stage)
	OnRecord(runID uuid.UUID, rec HourlyRecord)
	OnSummary(runID uuid.UUID, summary Summary)
}

// NopCallback ignores every event.
type NopCallback struct{}

func (NopCallback) OnStage(uuid.UUID, Stage)         {}
func (NopCallback) OnRecord(uuid.UUID, HourlyRecord) {}
func (NopCallback) OnSummary(uuid.UUID, Summary)     {}

// Engine runs simulations one at a time.
type Engine struct {
	mu       sync.Mutex
	running  bool
	last     *Result
	callback Callback
	metrics  *metrics.Metrics
}

// New creates an engine. cb and m may be nil.
func New(cb Callback, m *metrics.Metrics) *Engine {
	if cb == nil {
		cb = NopCallback{}
	}
	return &Engine{callback: cb, metrics: m}
}

// Running reports whether a run is executing.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Last returns the most recent successful result, or nil.
func (e *Engine) Last() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Run simulates one year. It fails only on invalid configuration or a
// cancelled context; unavailable data degrades to defaults.
func (e *Engine) Run(ctx context.Context, rc RunConfig) (*Result, error) {
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	res := &Result{RunID: uuid.New(), Started: time.Now()}
	ctx = log.WithAttrs(ctx, slog.String("run_id", res.RunID.String()))
	e.metrics.RunStarted()

	err := e.run(ctx, rc, res)
	res.Finished = time.Now()
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	e.metrics.RunFinished(status, res.Finished.Sub(res.Started))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.last = res
	e.mu.Unlock()
	return res, nil
}

func (e *Engine) run(ctx context.Context, rc RunConfig, res *Result) error {
	logger := log.Ctx(ctx)
	loc := timeseries.LocalZone(rc.Site.Lon)
	index := timeseries.HourlyIndex(rc.Site.Year, loc)
	logger.InfoContext(ctx, "run started",
		slog.Float64("lat", rc.Site.Lat),
		slog.Float64("lon", rc.Site.Lon),
		slog.Int("year", rc.Site.Year),
		slog.String("tz", loc.String()),
		slog.Int("hours", len(index)))

	// Environment and currents are independent and may both hit the network.
	var env []model.EnvironmentalSample
	var cur currents.Resolution
	envDone := e.stage(ctx, res.RunID, StageEnvironment)
	curDone := e.stage(ctx, res.RunID, StageCurrents)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		env = e.environment(gctx, rc, index)
		envDone()
		return gctx.Err()
	})
	g.Go(func() error {
		cur = e.currents(gctx, rc, index)
		curDone()
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Currents = cur

	done := e.stage(ctx, res.RunID, StageGeneration)
	gen, err := BuildGeneration(ctx, rc, env, cur.Speed)
	done()
	if err != nil {
		return err
	}

	done = e.stage(ctx, res.RunID, StageDispatch)
	batt := NewBattery(rc.Battery)
	load := ConstantLoad(len(index), rc.DailyLoadKWh)
	records, err := Dispatch(gen, load, batt)
	done()
	if err != nil {
		return err
	}
	for _, r := range records {
		e.callback.OnRecord(res.RunID, r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done = e.stage(ctx, res.RunID, StageSummary)
	summary := Summarize(records, rc.Battery, batt.Cycles())
	summary.Site = SiteInfo{Lat: rc.Site.Lat, Lon: rc.Site.Lon, TZ: loc.String(), Year: rc.Site.Year}
	summary.CurrentSource = cur.Source
	done()

	res.Records = records
	res.Summary = summary
	res.Battery = batt.Summary()

	e.metrics.SetLastRun(map[string]float64{
		"pv":        summary.EnergyKWh.PV,
		"wind":      summary.EnergyKWh.Wind,
		"hydro":     summary.EnergyKWh.Hydro,
		"total_gen": summary.EnergyKWh.TotalGen,
		"load":      summary.EnergyKWh.Load,
		"exports":   summary.EnergyKWh.Exports,
		"unmet":     summary.EnergyKWh.Unmet,
	}, summary.Battery.CyclesApprox)
	e.callback.OnSummary(res.RunID, summary)

	logger.InfoContext(ctx, "run finished",
		slog.Float64("total_gen_kwh", summary.EnergyKWh.TotalGen),
		slog.Float64("unmet_kwh", summary.EnergyKWh.Unmet),
		slog.Float64("cycles", summary.Battery.CyclesApprox),
		slog.String("current_source", summary.CurrentSource))
	return nil
}

// stage announces a stage and returns a func that records its duration.
func (e *Engine) stage(ctx context.Context, runID uuid.UUID, s Stage) func() {
	log.Ctx(ctx).DebugContext(ctx, "stage started", slog.String("stage", string(s)))
	e.callback.OnStage(runID, s)
	start := time.Now()
	return func() {
		e.metrics.ObserveStage(string(s), time.Since(start))
	}
}

// environment loads, normalizes and overrides the meteorological inputs.
func (e *Engine) environment(ctx context.Context, rc RunConfig, index []time.Time) []model.EnvironmentalSample {
	var raw *timeseries.Table
	if rc.Environment != nil {
		tbl, err := rc.Environment.Fetch(ctx, rc.Site)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "environment source unavailable, using defaults",
				slog.String("source", rc.Environment.Name()),
				slog.Any("error", err))
			e.metrics.ProviderFailed(rc.Environment.Name())
		} else {
			raw = tbl
		}
	}
	return NormalizeEnvironment(raw, rc.SolarOverride, rc.WindOverride, index)
}

// NormalizeEnvironment aligns a raw environmental table to index, applies the
// solar then wind overrides and returns one sample per hour.
func NormalizeEnvironment(raw, solarOverride, windOverride *timeseries.Table, index []time.Time) []model.EnvironmentalSample {
	tbl := timeseries.Normalize(raw, index, model.EnvironmentColumns)
	if solarOverride != nil && solarOverride.Len() > 0 {
		tbl = timeseries.Override(tbl, prepareOverride(solarOverride, index), model.SolarOverrideColumns)
	}
	if windOverride != nil && windOverride.Len() > 0 {
		tbl = timeseries.Override(tbl, prepareOverride(windOverride, index), model.WindOverrideColumns)
	}
	return timeseries.EnvironmentSamples(tbl)
}

// prepareOverride resamples an uploaded table to hourly means in the zone of
// the index. Override then interpolates it onto the index.
func prepareOverride(t *timeseries.Table, index []time.Time) *timeseries.Table {
	hourly := timeseries.ResampleHourly(t)
	if len(index) == 0 {
		return hourly
	}
	return hourly.In(index[0].Location())
}

func (e *Engine) currents(ctx context.Context, rc RunConfig, index []time.Time) currents.Resolution {
	if !rc.Toggles.Hydro {
		return currents.Resolution{Source: SourceDisabled, Speed: make([]float64, len(index))}
	}
	res := currents.Resolve(ctx, rc.Currents, index)
	e.metrics.CurrentResolved(res.Source, res.Skipped)
	return res
}

// BuildGeneration runs the enabled generation models. Disabled sources are
// all-zero series. Models run concurrently.
func BuildGeneration(ctx context.Context, rc RunConfig, env []model.EnvironmentalSample, currentSpeed []float64) (Generation, error) {
	index := make([]time.Time, len(env))
	ws10 := make([]float64, len(env))
	for i, s := range env {
		index[i] = s.Time
		ws10[i] = s.WindSpeed10
	}
	gen := NewGeneration(index)

	var g errgroup.Group
	if rc.Toggles.PV {
		g.Go(func() error {
			gen.PV = solar.Power(env, rc.Site, rc.PV)
			return nil
		})
	}
	if rc.Toggles.Wind {
		g.Go(func() error {
			gen.Wind = wind.Power(ws10, rc.Wind)
			return nil
		})
	}
	if rc.Toggles.Hydro {
		if len(currentSpeed) != len(index) {
			return Generation{}, fmt.Errorf("current speed has %d hours, index %d", len(currentSpeed), len(index))
		}
		g.Go(func() error {
			gen.Hydro = hydro.Power(currentSpeed, rc.Hydro)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Generation{}, err
	}

	if rc.Toggles.Interference && rc.Toggles.Wind {
		wind.ApplyInterference(gen.Wind, gen.PV)
	}
	return gen, ctx.Err()
}
