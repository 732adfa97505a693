// Package metrics exposes Prometheus collectors for simulation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "hybridsim_"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics bundles run metrics. A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunsInFlight     prometheus.Gauge
	RunDuration      prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	CurrentSources   *prometheus.CounterVec
	ProviderFailures *prometheus.CounterVec
	LastEnergyKWh    *prometheus.GaugeVec
	LastCycles       prometheus.Gauge
	WSClients        prometheus.Gauge
}

// New constructs metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total simulation runs by status",
			},
			[]string{"status"},
		),
		RunsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "runs_in_flight",
			Help: "Simulation runs currently executing",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_duration_seconds",
			Help:    "Simulation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "stage_duration_seconds",
				Help:    "Simulation stage duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		CurrentSources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "current_source_total",
				Help: "Resolved current sources by name",
			},
			[]string{"source"},
		),
		ProviderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "provider_failures_total",
				Help: "Data providers that failed and were skipped",
			},
			[]string{"provider"},
		),
		LastEnergyKWh: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_run_energy_kwh",
				Help: "Annual energy of the most recent run by flow",
			},
			[]string{"flow"},
		),
		LastCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "last_run_battery_cycles",
			Help: "Approximate full battery cycles of the most recent run",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "ws_clients",
			Help: "Connected WebSocket clients",
		}),
	}
	reg.MustRegister(
		m.RunsTotal,
		m.RunsInFlight,
		m.RunDuration,
		m.StageDuration,
		m.CurrentSources,
		m.ProviderFailures,
		m.LastEnergyKWh,
		m.LastCycles,
		m.WSClients,
	)
	return m
}

// RunStarted marks a run in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsInFlight.Inc()
}

// RunFinished records a completed run.
func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = StatusSuccess
	}
	m.RunsInFlight.Dec()
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// ObserveStage records one stage's duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CurrentResolved counts the chosen current source and any skipped ones.
func (m *Metrics) CurrentResolved(source string, skipped []string) {
	if m == nil {
		return
	}
	m.CurrentSources.WithLabelValues(source).Inc()
	for _, p := range skipped {
		m.ProviderFailures.WithLabelValues(p).Inc()
	}
}

// ProviderFailed counts a failed data provider.
func (m *Metrics) ProviderFailed(provider string) {
	if m == nil {
		return
	}
	m.ProviderFailures.WithLabelValues(provider).Inc()
}

// SetLastRun publishes the totals of a finished run, keyed by flow name.
func (m *Metrics) SetLastRun(energyKWh map[string]float64, cycles float64) {
	if m == nil {
		return
	}
	for flow, v := range energyKWh {
		m.LastEnergyKWh.WithLabelValues(flow).Set(v)
	}
	m.LastCycles.Set(cycles)
}

// SetWSClients publishes the connected client count.
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}
