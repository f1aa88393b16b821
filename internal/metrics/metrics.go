package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "projecthub_ws_connections",
		Help: "Current number of active websocket connections",
	})
	RealtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_realtime_events_total",
		Help: "Realtime events fanned out, by event name",
	}, []string{"event"})
	AuthOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_auth_outcomes_total",
		Help: "Credential operations by operation and result",
	}, []string{"operation", "result"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, RealtimeEventsTotal, AuthOutcomesTotal, HttpRequestsTotal, HttpRequestDuration)
}

func AuthOutcome(operation, result string) {
	AuthOutcomesTotal.WithLabelValues(operation, result).Inc()
}

func RealtimeEvent(event string) {
	RealtimeEventsTotal.WithLabelValues(event).Inc()
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
