// Package metrics exposes restreamd's transition counters as Prometheus
// metrics, and doubles as a restream.NotificationSink so the coordinator
// can drive them directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bluenviron/restreamd/internal/restream"
)

// Metrics holds Prometheus counters and gauges for the restream server.
type Metrics struct {
	registry *prometheus.Registry

	playersConnectedTotal    prometheus.Counter
	playersDisconnectedTotal prometheus.Counter
	recordersConnectedTotal  prometheus.Counter
	recordersDisconnectedTotal prometheus.Counter
	activePaths              prometheus.Gauge
}

// New creates and registers Prometheus metrics for the restream server.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		playersConnectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restreamd_first_player_connected_total",
			Help: "Total number of paths that transitioned from zero to one active player",
		}),
		playersDisconnectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restreamd_last_player_disconnected_total",
			Help: "Total number of paths that transitioned from one to zero active players",
		}),
		recordersConnectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restreamd_recorder_connected_total",
			Help: "Total number of paths that acquired a recorder",
		}),
		recordersDisconnectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restreamd_recorder_disconnected_total",
			Help: "Total number of paths that lost their recorder",
		}),
		activePaths: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "restreamd_active_paths",
			Help: "Number of paths with at least one client currently attached",
		}),
	}

	registry.MustRegister(
		m.playersConnectedTotal,
		m.playersDisconnectedTotal,
		m.recordersConnectedTotal,
		m.recordersDisconnectedTotal,
		m.activePaths,
	)

	return m
}

// Sink returns a restream.NotificationSink wired to increment these
// counters. It never touches activePaths: that gauge is refreshed
// out-of-band by whatever calls SetActivePaths, since the coordinator does
// not expose a live path count to its sinks.
func (m *Metrics) Sink() restream.NotificationSink {
	return restream.NotificationSink{
		FirstPlayerConnected:   func(string, restream.PathID) { m.playersConnectedTotal.Inc() },
		LastPlayerDisconnected: func(restream.PathID) { m.playersDisconnectedTotal.Inc() },
		RecorderConnected:      func(string, restream.PathID) { m.recordersConnectedTotal.Inc() },
		RecorderDisconnected:   func(restream.PathID) { m.recordersDisconnectedTotal.Inc() },
	}
}

// SetActivePaths sets the active-paths gauge.
func (m *Metrics) SetActivePaths(n int) {
	m.activePaths.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
