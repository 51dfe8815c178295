// Package metrics collects Prometheus metrics for the account API and exposes
// them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcomes recorded by RecordAuthEvent.
const (
	OutcomeSuccess      = "success"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeLocked       = "locked"
	OutcomeForbidden    = "forbidden"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// Recorder is what handlers and middleware use to record metrics.
type Recorder interface {
	RecordAuthEvent(operation, outcome string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordRateLimited(route string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	authEvents   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	rateLimited  *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_auth_events_total",
			Help: "Account operations by outcome.",
		}, []string{"operation", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accounts_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.authEvents,
		c.httpRequests,
		c.httpDuration,
		c.rateLimited,
	)

	return c
}

// RecordAuthEvent counts one register, login, get or edit outcome.
func (c *Collector) RecordAuthEvent(operation, outcome string) {
	c.authEvents.WithLabelValues(operation, outcome).Inc()
}

// RecordHTTPRequest records a finished request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected with 429.
func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. It is used when metrics are not wired.
type Nop struct{}

func (Nop) RecordAuthEvent(string, string)                       {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordRateLimited(string)                             {}
