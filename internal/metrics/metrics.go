package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kosgate_request_duration_seconds",
		Help:    "Gateway request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kosgate_upstream_errors_total",
		Help: "Errors returned by the kos backend, by error kind.",
	}, []string{"kind"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kosgate_cache_requests_total",
		Help: "Read-model cache lookups by outcome.",
	}, []string{"model", "outcome"})
)

// Middleware records request latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ObserveUpstreamError counts an upstream failure by taxonomy kind.
func ObserveUpstreamError(kind string) {
	upstreamErrors.WithLabelValues(kind).Inc()
}

// ObserveCache counts a cache lookup: outcome is "hit" or "miss".
func ObserveCache(model, outcome string) {
	cacheHits.WithLabelValues(model, outcome).Inc()
}
