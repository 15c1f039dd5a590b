package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
)

// APIKeyAuth rejects requests to non-public paths that lack the shared key.
// The key is read from header, falling back to the query parameter.
func APIKeyAuth(gate Gate, header, queryParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate.AuthEnabled() || gate.IsPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		credential := c.GetHeader(header)
		if credential == "" {
			credential = c.Query(queryParam)
		}

		if !gate.Authenticate(credential) {
			logger.FromContext(c.Request.Context()).Warn("unauthorized request",
				"path", c.Request.URL.Path,
				"ip", c.ClientIP(),
				"key_present", credential != "",
			)
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		c.Next()
	}
}
