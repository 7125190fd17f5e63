package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/service"
)

// Metrics records method, route, status and latency for every request. The
// route template is preferred over the raw path so ids do not explode the
// label space.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
