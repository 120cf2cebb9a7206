package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/service"
)

// Metrics observes every request's method, route template, status and
// latency. The route template keeps label cardinality bounded; raw
// paths are only used for requests that matched no route.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
