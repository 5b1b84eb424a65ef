package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's instrumentation on a private registry so
// multiple servers in one process never collide on registration.
type metrics struct {
	registry *prometheus.Registry

	analyses    prometheus.Counter
	stale       prometheus.Counter
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rune_analyses_total",
			Help: "Documents analyzed and retained by the session.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rune_stale_updates_total",
			Help: "Document updates discarded for carrying a stale version.",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rune_diagnostics_total",
			Help: "Diagnostics produced by retained analyses.",
		}, []string{"severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rune_analysis_duration_seconds",
			Help:    "Wall time of one document analysis.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(m.analyses, m.stale, m.diagnostics, m.duration)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
