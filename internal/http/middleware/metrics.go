// README: HTTP metrics middleware.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"relay/internal/metrics"
)

// Metrics records request count and latency labelled by the matched route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
