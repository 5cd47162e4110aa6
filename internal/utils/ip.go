package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealIP extracts the client IP from various headers, respecting reverse proxies
func GetRealIP(c *gin.Context) string {
	// Cloudflare sets the connecting client's address
	if ip := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For is "client, proxy1, proxy2", the leftmost entry is the client
	if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
		if clientIP := strings.TrimSpace(strings.Split(forwardedFor, ",")[0]); clientIP != "" {
			return clientIP
		}
	}

	return c.ClientIP()
}
