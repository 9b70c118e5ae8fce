package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus.
// Routes are labelled by their gin pattern so ids do not explode cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.HTTPActiveConnections.WithLabelValues(method, route).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, route).Dec()

		startTime := time.Now()
		c.Next()

		// Numeric status keeps Grafana queries like status=~"5.." working
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(startTime).Seconds())
	}
}
