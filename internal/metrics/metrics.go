// Package metrics provides Prometheus metrics for the prompterest API
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	RatingSubmissionsTotal *prometheus.CounterVec
	MutationDecisionsTotal *prometheus.CounterVec
	SummaryCacheLookups    *prometheus.CounterVec
}

// NewMetrics creates all metrics on a private registry so that several
// instances (one per test) never collide on the default registerer.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompterest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompterest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.RatingSubmissionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompterest_rating_submissions_total",
			Help: "Rating submissions by outcome",
		},
		[]string{"outcome"},
	)

	m.MutationDecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompterest_mutation_decisions_total",
			Help: "Authoritative ownership checks by operation and decision",
		},
		[]string{"operation", "decision"},
	)

	m.SummaryCacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompterest_summary_cache_lookups_total",
			Help: "Rating summary cache lookups by result",
		},
		[]string{"result"},
	)

	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RatingSubmitted records the outcome of a SubmitRating call
func (m *Metrics) RatingSubmitted(outcome string) {
	if m == nil {
		return
	}
	m.RatingSubmissionsTotal.WithLabelValues(outcome).Inc()
}

// MutationDecision records an authoritative allow/deny decision
func (m *Metrics) MutationDecision(operation string, allowed bool) {
	if m == nil {
		return
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	m.MutationDecisionsTotal.WithLabelValues(operation, decision).Inc()
}

// CacheLookup records a summary cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SummaryCacheLookups.WithLabelValues(result).Inc()
}
