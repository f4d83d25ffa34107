// Package metrics exposes bridge and injection counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inputbridge"

// Metrics groups the collectors on a private registry so tests and multiple
// servers in one process don't collide on the default one.
type Metrics struct {
	Registry          *prometheus.Registry
	Calls             *prometheus.CounterVec
	Injections        *prometheus.CounterVec
	InjectionDuration prometheus.Histogram
	Fallbacks         prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Method calls received by the bridge, by method and reply code.",
			},
			[]string{"method", "code"},
		),
		Injections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "injections_total",
				Help:      "Completed injection attempts, by outcome.",
			},
			[]string{"outcome"},
		),
		InjectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "injection_duration_seconds",
				Help:      "Time from dequeue to host action result.",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		Fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clipboard_fallbacks_total",
				Help:      "Failed injections whose text was copied to the clipboard instead.",
			},
		),
	}
	m.Registry.MustRegister(
		m.Calls,
		m.Injections,
		m.InjectionDuration,
		m.Fallbacks,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
