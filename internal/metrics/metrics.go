package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	TerminologySearches *prometheus.CounterVec
	ProblemsAdded       prometheus.Counter
	ProblemsRemoved     prometheus.Counter
	ChatbotRequests     *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TerminologySearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "terminology_searches_total",
				Help:      "Terminology searches by where the results came from",
			},
			[]string{"source"},
		),
		ProblemsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "problems_added_total",
				Help:      "Total number of problem list items added",
			},
		),
		ProblemsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "problems_removed_total",
				Help:      "Total number of problem list items removed",
			},
		),
		ChatbotRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chatbot_requests_total",
				Help:      "Chatbot relay requests by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.TerminologySearches,
		c.ProblemsAdded,
		c.ProblemsRemoved,
		c.ChatbotRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRequest(method, route, status string, seconds float64) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// SearchServed counts a search by source: mapping, concept, empty or cache.
func (c *Collector) SearchServed(source string) {
	if c == nil {
		return
	}
	c.TerminologySearches.WithLabelValues(source).Inc()
}

func (c *Collector) ProblemAdded() {
	if c == nil {
		return
	}
	c.ProblemsAdded.Inc()
}

func (c *Collector) ProblemRemoved() {
	if c == nil {
		return
	}
	c.ProblemsRemoved.Inc()
}

func (c *Collector) ChatbotRequest(outcome string) {
	if c == nil {
		return
	}
	c.ChatbotRequests.WithLabelValues(outcome).Inc()
}
