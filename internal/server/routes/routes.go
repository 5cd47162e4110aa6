package routes

import (
	"github.com/osa911/formrelay/internal/api/middleware"
	"github.com/osa911/formrelay/internal/logging"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Setup configures the public form endpoint
func Setup(router *gin.Engine, h *Handlers, opts Options, logger *logging.Logger) {
	SetupGlobalMiddleware(router, opts, logger)
	SetupFormRoutes(router, h, opts, logger)

	logger.Debug("Form routes have been set up (origin=%q, redirect=%q)", opts.Origin, opts.RedirectTarget)
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine, opts Options, logger *logging.Logger) {
	router.Use(middleware.Recovery(logger))
	if opts.Tracing {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
}
