package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tasktrack-api/internal/service"
)

// unmatchedRoute labels requests that hit no route so 404 scans do not
// create one series per path.
const unmatchedRoute = "unmatched"

// Metrics records request duration and status per route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
