// Package metrics collects and exposes Prometheus metrics for the session service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultSuccess          = "success"
	ResultInvalid          = "invalid"
	ResultError            = "error"
	ResultInvalidSignature = "invalid_signature"
	ResultNotFound         = "not_found"
	ResultExpired          = "expired"

	SourcePassword = "password"
	SourceExternal = "external"
)

// MetricsCollector is the recording interface used by the service and HTTP layers.
type MetricsCollector interface {
	RecordRegistration(result string)
	RecordLogin(result string)
	RecordSessionCreated(source string)
	RecordTokenResolve(result string)
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// Collector is the Prometheus implementation.
type Collector struct {
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	sessionsCreated *prometheus.CounterVec
	tokenResolves   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_registrations_total",
			Help: "Registration attempts by result",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_logins_total",
			Help: "Password login attempts by result",
		}, []string{"result"}),
		sessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_sessions_created_total",
			Help: "Sessions created by source",
		}, []string{"source"}),
		tokenResolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_token_resolves_total",
			Help: "Bearer token resolutions by result",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sessionauth_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.sessionsCreated,
		c.tokenResolves,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordSessionCreated(source string) {
	c.sessionsCreated.WithLabelValues(source).Inc()
}

func (c *Collector) RecordTokenResolve(result string) {
	c.tokenResolves.WithLabelValues(result).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRegistration(string)                            {}
func (Nop) RecordLogin(string)                                   {}
func (Nop) RecordSessionCreated(string)                          {}
func (Nop) RecordTokenResolve(string)                            {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
