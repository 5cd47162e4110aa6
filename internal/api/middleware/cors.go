package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORS lets the configured website read the relay's responses. Requests
// from other origins never reach this point because RequireOrigin runs first.
func CORS(allowed string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
		case allowed == "":
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			c.Header("Access-Control-Allow-Origin", allowed)
			c.Header("Vary", "Origin")
		}

		c.Next()
	}
}
