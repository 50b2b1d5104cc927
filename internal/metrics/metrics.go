package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "requestdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	requestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestdesk_requests_submitted_total",
			Help: "Requests submitted, by type",
		},
		[]string{"type"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestdesk_transitions_total",
			Help: "Request workflow transitions, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	wsClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "requestdesk_websocket_clients",
			Help: "Connected websocket clients",
		},
	)
)

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "unknown"
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusClass(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordSubmission counts a created request.
func RecordSubmission(requestType string) {
	requestsSubmitted.WithLabelValues(requestType).Inc()
}

// RecordTransition counts a workflow action; outcome is "changed", "noop"
// or "refused".
func RecordTransition(action, outcome string) {
	transitionsTotal.WithLabelValues(action, outcome).Inc()
}

// SetWebsocketClients sets the connected client gauge.
func SetWebsocketClients(n int) {
	wsClients.Set(float64(n))
}

// Middleware records every request against its route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
