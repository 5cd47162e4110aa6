package handlers

import (
	"net/http"

	"github.com/osa911/formrelay/internal/api/dto/common"
	"github.com/osa911/formrelay/internal/version"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	provider string
}

func NewHealthHandler(mailProvider string) *HealthHandler {
	return &HealthHandler{provider: mailProvider}
}

type healthResponse struct {
	common.MessageResponse
	MailProvider string            `json:"mail_provider"`
	Build        version.BuildInfo `json:"build"`
}

// Check reports liveness. The relay holds no connections, so there is
// nothing further to check.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		MessageResponse: common.NewMessageResponse("Health check OK"),
		MailProvider:    h.provider,
		Build:           version.GetBuildInfo(),
	})
}
