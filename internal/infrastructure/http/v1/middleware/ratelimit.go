package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RateLimit admits requests per client IP through the gate's sliding window.
func RateLimit(gate Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate.RateLimitEnabled() || gate.IsPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		d := gate.Admit(c.Request.Context(), c.ClientIP())

		if d.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}

		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
			abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		c.Next()
	}
}
