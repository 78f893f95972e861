package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger prints one line per console request. Query strings are left out
// because login and confirm forms may carry secrets.
func Logger(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		role := "-"
		if s := CurrentSession(c); s != nil {
			role = string(s.Role)
		}
		log.Printf("[HTTP] request_id=%s method=%s path=%s status=%d role=%s latency_ms=%.3f",
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			role,
			float64(time.Since(start).Microseconds())/1000.0,
		)
	}
}
