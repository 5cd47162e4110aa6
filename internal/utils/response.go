package utils

import (
	"net/http"

	"github.com/osa911/formrelay/internal/api/dto/common"

	"github.com/gin-gonic/gin"
)

// HandleMessage sends a success response with just a message
func HandleMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, common.NewMessageResponse(message))
}

// HandleRedirect sends a 302 without a body. gin's Redirect would write a
// small HTML body for GET requests.
func HandleRedirect(c *gin.Context, location string) {
	c.Header("Location", location)
	c.AbortWithStatus(http.StatusFound)
}
