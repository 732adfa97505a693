package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestMetrics_RunLifecycle(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunStarted()
	assert.InDelta(t, 1, value(t, m.RunsInFlight), 1e-9)

	m.RunFinished(StatusSuccess, 2*time.Second)
	m.RunStarted()
	m.RunFinished(StatusError, time.Second)

	assert.InDelta(t, 0, value(t, m.RunsInFlight), 1e-9)
	assert.InDelta(t, 1, value(t, m.RunsTotal.WithLabelValues(StatusSuccess)), 1e-9)
	assert.InDelta(t, 1, value(t, m.RunsTotal.WithLabelValues(StatusError)), 1e-9)
}

func TestMetrics_CurrentResolved(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CurrentResolved("synthetic", []string{"uploaded"})
	m.CurrentResolved("synthetic", nil)
	m.ProviderFailed("nasa-power")

	assert.InDelta(t, 2, value(t, m.CurrentSources.WithLabelValues("synthetic")), 1e-9)
	assert.InDelta(t, 1, value(t, m.ProviderFailures.WithLabelValues("uploaded")), 1e-9)
	assert.InDelta(t, 1, value(t, m.ProviderFailures.WithLabelValues("nasa-power")), 1e-9)
}

func TestMetrics_SetLastRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetLastRun(map[string]float64{"pv": 1200.5, "unmet": 3}, 41.2)

	assert.InDelta(t, 1200.5, value(t, m.LastEnergyKWh.WithLabelValues("pv")), 1e-9)
	assert.InDelta(t, 41.2, value(t, m.LastCycles), 1e-9)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunStarted()
		m.RunFinished(StatusSuccess, time.Second)
		m.ObserveStage("dispatch", time.Millisecond)
		m.CurrentResolved("none", nil)
		m.ProviderFailed("x")
		m.SetLastRun(nil, 0)
		m.SetWSClients(3)
	})
}
