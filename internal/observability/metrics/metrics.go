package metrics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application-level instruments backed by a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	checkoutSessions *prometheus.CounterVec
	paymentEvents    *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	emailsSent       *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visaflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_checkout_sessions_total",
			Help: "Checkout sessions created, by outcome.",
		}, []string{"outcome"}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_payment_events_total",
			Help: "Verified payment webhook events, by type.",
		}, []string{"event_type"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_submissions_total",
			Help: "Application submissions, by outcome.",
		}, []string{"outcome"}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_emails_sent_total",
			Help: "Confirmation emails, by outcome.",
		}, []string{"outcome"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_rate_limit_denied_total",
			Help: "Requests rejected by rate limiting, by route.",
		}, []string{"route"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.checkoutSessions,
		m.paymentEvents,
		m.submissions,
		m.emailsSent,
		m.rateLimitDenied,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GinMiddleware records request counts and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := statusClass(c.Writer.Status())
		m.httpRequests.WithLabelValues(route, c.Request.Method, status).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RecordCheckoutSession(outcome string) {
	if m == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) RecordPaymentEvent(eventType string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) RecordEmail(outcome string) {
	if m == nil {
		return
	}
	m.emailsSent.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) RecordRateLimitDenied(route string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(normalizeLabel(route)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
