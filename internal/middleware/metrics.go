package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// requestObserver records handled requests.
type requestObserver interface {
	ObserveRequest(method, route, status string, duration time.Duration)
}

// Metrics records request counts and latency per route template.
func Metrics(observer requestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
