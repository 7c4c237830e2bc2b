// Package metrics exposes Prometheus counters for the write paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeAnomaly = "anomaly"
	OutcomeMissing = "missing"
)

// Metrics owns a private registry so tests can create as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	feedbackSubmissions *prometheus.CounterVec
	ingestTableResults  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		feedbackSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsrecords",
			Name:      "feedback_submissions_total",
			Help:      "Feedback submissions by result.",
		}, []string{"result"}),
		ingestTableResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsrecords",
			Name:      "ingest_table_results_total",
			Help:      "Schedule ingestion steps by table, phase and outcome.",
		}, []string{"table", "phase", "outcome"}),
	}
	registry.MustRegister(m.feedbackSubmissions, m.ingestTableResults)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is the registry the counters are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) FeedbackSubmitted(result string) {
	if m == nil {
		return
	}
	m.feedbackSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) IngestStep(table, phase, outcome string) {
	if m == nil {
		return
	}
	m.ingestTableResults.WithLabelValues(table, phase, outcome).Inc()
}
