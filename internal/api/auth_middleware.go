package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "api-key"

// APIKeyMiddleware guards the generation endpoints with the single static
// relay credential. Asset and health endpoints stay open.
func (h *HTTPHandler) APIKeyMiddleware() gin.HandlerFunc {
	expected := strings.TrimSpace(h.cfg.RelayAPIKey)
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		provided := strings.TrimSpace(c.GetHeader(apiKeyHeader))
		if provided == "" {
			Forbidden(c, "api key required")
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			Forbidden(c, "invalid api key")
			c.Abort()
			return
		}
		c.Next()
	}
}
