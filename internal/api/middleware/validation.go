package middleware

import (
	"net/http"

	"github.com/osa911/formrelay/internal/api/constants"
	"github.com/osa911/formrelay/internal/api/dto/common"
	"github.com/osa911/formrelay/internal/form"
	"github.com/osa911/formrelay/internal/logging"
	"github.com/osa911/formrelay/internal/observability/metrics"
	"github.com/osa911/formrelay/internal/utils"

	"github.com/gin-gonic/gin"
)

// DecodeSubmission parses the JSON body into a form.Submission and stores it
// in the context. Field validation is left to the handler, which must verify
// the bot token first. A body that does not decode, including one with a
// wrongly typed field, is counted as invalid_body.
func DecodeSubmission(m *metrics.FormMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var submission form.Submission
		if err := c.ShouldBindJSON(&submission); err != nil {
			utils.HandleAPIError(c, logger, err, http.StatusBadRequest, common.MsgInvalidBody)
			m.ObserveSubmission("", metrics.OutcomeInvalidBody)
			return
		}

		c.Set(constants.ContextKeySubmission, &submission)
		c.Next()
	}
}
