package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server. Each server gets its own
// registry so several can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	// evaluations counts evaluations by source (api, ws) and result (valid, invalid)
	evaluations *prometheus.CounterVec

	// actions counts engine actions applied through the web front-end
	actions *prometheus.CounterVec

	// rateLimited counts WebSocket messages dropped by the per-client limiter
	rateLimited prometheus.Counter

	// clients tracks connected WebSocket clients
	clients prometheus.Gauge
}

// NewMetrics registers the server collectors. sessionCount feeds the live
// session gauge.
func NewMetrics(sessionCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rechenschnell_evaluations_total",
				Help: "Total expression evaluations by source and result",
			},
			[]string{"source", "result"},
		),
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rechenschnell_actions_total",
				Help: "Total calculator actions by action name",
			},
			[]string{"action"},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rechenschnell_ws_rate_limited_total",
				Help: "Total WebSocket messages rejected by the rate limiter",
			},
		),
		clients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rechenschnell_ws_clients",
				Help: "Number of connected WebSocket clients",
			},
		),
	}

	if sessionCount != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "rechenschnell_sessions_active",
				Help: "Number of live calculator sessions",
			},
			func() float64 { return float64(sessionCount()) },
		)
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordEvaluation(source string, valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.evaluations.WithLabelValues(source, result).Inc()
}

func (m *Metrics) recordAction(action string) {
	m.actions.WithLabelValues(action).Inc()
}

func (m *Metrics) recordRateLimited() {
	m.rateLimited.Inc()
}
