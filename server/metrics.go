package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/qamatch/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes counted by Metrics.
const (
	OutcomeMatch   = "match"
	OutcomeExact   = "exact"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors of one server.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	queries      *prometheus.CounterVec
	degraded     prometheus.Counter
	storeLatency *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qamatch_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qamatch_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qamatch_queries_total",
				Help: "Queries by outcome",
			},
			[]string{"outcome"},
		),
		degraded: f.NewCounter(prometheus.CounterOpts{
			Name: "qamatch_degraded_queries_total",
			Help: "Queries scored without their embedding",
		}),
		storeLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qamatch_store_latency_seconds",
				Help:    "Store operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Middleware records request count and duration per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveQuery counts one query outcome.
func (m *Metrics) ObserveQuery(resp *search.Response, err error) {
	switch {
	case err != nil:
		m.queries.WithLabelValues(OutcomeError).Inc()
		return
	case resp.Exact:
		m.queries.WithLabelValues(OutcomeExact).Inc()
	case resp.Matched():
		m.queries.WithLabelValues(OutcomeMatch).Inc()
	default:
		m.queries.WithLabelValues(OutcomeNoMatch).Inc()
	}
	if resp.Degraded {
		m.degraded.Inc()
	}
}

// ObserveStore records the latency of a store operation started at start.
func (m *Metrics) ObserveStore(operation string, start time.Time) {
	m.storeLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
