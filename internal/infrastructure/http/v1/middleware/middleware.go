package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/ratewindow"
)

// Gate is the request gate the auth and rate limit middleware consult.
type Gate interface {
	IsPublic(path string) bool
	AuthEnabled() bool
	RateLimitEnabled() bool
	Authenticate(credential string) bool
	Admit(ctx context.Context, identity string) ratewindow.Decision
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"message": message,
	})
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
