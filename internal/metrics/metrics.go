// Package metrics holds the Prometheus instruments for arrowpush.
//
// Every Metrics value owns a private registry, so tests and multiple
// servers in one process never collide on the default registerer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arrowpush"

// Evaluation outcomes.
const (
	OutcomeArrows       = "arrows"
	OutcomeNoMatch      = "no_match"
	OutcomeInvalidInput = "invalid_input"
)

// Render outcomes.
const (
	OutcomeRendered = "rendered"
	OutcomeError    = "error"
)

// Metrics is the set of instruments exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	ruleMatchesTotal   *prometheus.CounterVec
	annotationFailures *prometheus.CounterVec
	rendersTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total suggest evaluations by outcome",
		}, []string{"outcome"}),

		ruleMatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Rules whose reactant and reagent patterns both matched",
		}, []string{"rule_id"}),

		annotationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotation_failures_total",
			Help:      "Matched rules skipped because the match could not become an arrow",
		}, []string{"rule_id"}),

		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total structure renders by outcome",
		}, []string{"outcome"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"route", "method", "status"}),
	}

	m.registry.MustRegister(
		m.evaluationsTotal,
		m.ruleMatchesTotal,
		m.annotationFailures,
		m.rendersTotal,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}

// RuleMatched implements engine.Observer.
func (m *Metrics) RuleMatched(ruleID string) {
	m.ruleMatchesTotal.WithLabelValues(ruleID).Inc()
}

// AnnotationFailed implements engine.Observer.
func (m *Metrics) AnnotationFailed(ruleID string) {
	m.annotationFailures.WithLabelValues(ruleID).Inc()
}

// ObserveEvaluation counts one suggest evaluation.
func (m *Metrics) ObserveEvaluation(outcome string) {
	m.evaluationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRender counts one render.
func (m *Metrics) ObserveRender(outcome string) {
	m.rendersTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
