// Package metrics exposes pipeline counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	stages      *prometheus.CounterVec
	duration    prometheus.Histogram
	artifactsGC prometheus.Counter
	sessionsGC  prometheus.Counter
}

// New registers the collectors together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bhashavaani",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by terminal outcome.",
		}, []string{"outcome"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bhashavaani",
			Name:      "stage_entries_total",
			Help:      "Pipeline stage entries.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bhashavaani",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a pipeline run.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		artifactsGC: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bhashavaani",
			Name:      "artifacts_swept_total",
			Help:      "Synthesized audio files deleted without being fetched.",
		}),
		sessionsGC: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bhashavaani",
			Name:      "sessions_expired_total",
			Help:      "History sessions ended for inactivity.",
		}),
	}
	m.registry.MustRegister(
		m.runs, m.stages, m.duration, m.artifactsGC, m.sessionsGC,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StageEntered counts one stage transition.
func (m *Metrics) StageEntered(stage string) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Inc()
}

// RunFinished records the terminal outcome and duration of a run.
func (m *Metrics) RunFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ArtifactsSwept adds n to the swept artifact counter.
func (m *Metrics) ArtifactsSwept(n int) {
	if m == nil {
		return
	}
	m.artifactsGC.Add(float64(n))
}

// SessionsExpired adds n to the expired session counter.
func (m *Metrics) SessionsExpired(n int) {
	if m == nil {
		return
	}
	m.sessionsGC.Add(float64(n))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
