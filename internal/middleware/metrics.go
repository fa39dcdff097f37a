package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_console_http_requests_total",
			Help: "Total HTTP requests served by the console",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_console_http_request_duration_seconds",
			Help:    "Duration of console HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	SalesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_console_checkouts_total",
			Help: "Checkout attempts by payment method and outcome",
		},
		[]string{"method", "outcome"},
	)

	ReturnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_console_returns_total",
			Help: "Return actions by kind and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// InitMetrics registers the collectors with reg.
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, SalesTotal, ReturnsTotal)
}

func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "undefined"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}

// Outcome is the label value for an error result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
