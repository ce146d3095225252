// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stock_service"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Import attempts by flavor and status.",
	}, []string{"flavor", "status"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Imported rows by flavor and result.",
	}, []string{"flavor", "result"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_seconds",
		Help:      "Time to parse and merge one upload.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"flavor"})

	webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_notifications_total",
		Help:      "Webhook deliveries by category and result.",
	}, []string{"category", "result"})
)

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordImport counts one import attempt. Structural failures pass zero rows.
func RecordImport(flavor, status string, created, updated, skipped, errors int, took time.Duration) {
	importsTotal.WithLabelValues(flavor, status).Inc()
	importRows.WithLabelValues(flavor, "created").Add(float64(created))
	importRows.WithLabelValues(flavor, "updated").Add(float64(updated))
	importRows.WithLabelValues(flavor, "skipped").Add(float64(skipped))
	importRows.WithLabelValues(flavor, "error").Add(float64(errors))
	importDuration.WithLabelValues(flavor).Observe(took.Seconds())
}

// RecordWebhook counts one webhook delivery.
func RecordWebhook(category string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	webhooksTotal.WithLabelValues(category, result).Inc()
}
