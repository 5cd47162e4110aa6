package middleware

import (
	"time"

	"github.com/osa911/formrelay/internal/logging"
	"github.com/osa911/formrelay/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestLogger is a middleware that logs request information.
// It is a no-op unless request logging is enabled on the logger.
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	if !logger.RequestsEnabled() {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.LogHTTPRequest(
			c.Request.Method,
			path,
			utils.GetRealIP(c),
			c.GetString(ContextKeyRequestID),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}
