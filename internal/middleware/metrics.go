package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"legalyzer/internal/metrics"
)

// Metrics records request counts and latency against the matched route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
