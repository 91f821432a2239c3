package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadops/tuition-api/internal/service"
)

// Metrics records per-route latency and status counts for the planning and
// ledger endpoints. Routes are labelled by pattern, not raw URL, so plan IDs
// do not explode the label space.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
