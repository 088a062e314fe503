// Package telemetry exports Prometheus metrics for the dashboard service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proautofill"

// Metrics holds every metric the service exports.
type Metrics struct {
	// HTTP surface
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Backend gateway
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Job poller
	PollResults *prometheus.CounterVec

	factory  promauto.Factory
	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers the metrics on reg. A nil reg uses the
// default registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	m := &Metrics{factory: promauto.With(registerer), gatherer: gatherer}
	m.initHTTPMetrics()
	m.initGatewayMetrics()
	m.initPollerMetrics()
	return m
}

func (m *Metrics) initHTTPMetrics() {
	m.HTTPRequests = m.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by route and status",
	}, []string{"method", "route", "status"})

	m.HTTPDuration = m.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

func (m *Metrics) initGatewayMetrics() {
	m.GatewayCalls = m.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "calls_total",
		Help:      "Backend API calls, by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.GatewayDuration = m.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "call_duration_seconds",
		Help:      "Backend API call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"endpoint"})
}

func (m *Metrics) initPollerMetrics() {
	m.PollResults = m.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "results_total",
		Help:      "Job poll results, by outcome (applied, stale, error)",
	}, []string{"outcome"})
}

// RegisterGauges exports the live session and SSE client counts.
func (m *Metrics) RegisterGauges(activeSessions, sseClients func() int) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions with an armed expiry timer",
	}, func() float64 { return float64(activeSessions()) })

	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sse",
		Name:      "clients",
		Help:      "Connected event-stream clients",
	}, func() float64 { return float64(sseClients()) })
}

// ObserveGatewayCall records one backend call.
func (m *Metrics) ObserveGatewayCall(endpoint, outcome string, elapsed time.Duration) {
	m.GatewayCalls.WithLabelValues(endpoint, outcome).Inc()
	m.GatewayDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObservePoll records one poll result.
func (m *Metrics) ObservePoll(outcome string) {
	m.PollResults.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency by matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
