package utils

import (
	"github.com/osa911/formrelay/internal/api/dto/common"
	"github.com/osa911/formrelay/internal/logging"

	"github.com/gin-gonic/gin"
)

// HandleAPIError logs the failure and writes the message envelope with the
// given status. The message is written as-is, callers decide how much of
// err it carries. A nil logger falls back to the process-wide one.
func HandleAPIError(c *gin.Context, logger *logging.Logger, err error, status int, message string) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	logger.LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	c.AbortWithStatusJSON(status, common.NewMessageResponse(message))
}
