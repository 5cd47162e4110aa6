package routes

import (
	"github.com/osa911/formrelay/internal/api/middleware"
	"github.com/osa911/formrelay/internal/logging"

	"github.com/gin-gonic/gin"
)

// SetupFormRoutes mounts the form handler on every path and method. The
// gate middleware runs in response priority order: method, then origin.
func SetupFormRoutes(router *gin.Engine, h *Handlers, opts Options, logger *logging.Logger) {
	router.Any("/*path",
		middleware.RedirectNonPost(opts.RedirectTarget),
		middleware.RequireOrigin(opts.Origin),
		middleware.CORS(opts.Origin),
		middleware.DecodeSubmission(h.Metrics, logger),
		h.Form.Submit,
	)
}
