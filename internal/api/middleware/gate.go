package middleware

import (
	"net/http"

	"github.com/osa911/formrelay/internal/api/dto/common"
	"github.com/osa911/formrelay/internal/utils"

	"github.com/gin-gonic/gin"
)

// RedirectNonPost sends every request that is not a POST to target with a
// 302 and no body.
func RedirectNonPost(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			utils.HandleRedirect(c, target)
			return
		}
		c.Next()
	}
}

// RequireOrigin rejects requests whose Origin header is set and differs from
// allowed. An empty allowed origin leaves the endpoint open, as does a
// request without an Origin header.
func RequireOrigin(allowed string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed != "" && origin != "" && origin != allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, common.NewMessageResponse(common.MsgInvalidOrigin))
			return
		}
		c.Next()
	}
}
