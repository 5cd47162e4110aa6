package routes

import (
	"github.com/osa911/formrelay/internal/api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupOpsRoutes configures the health and metrics endpoints. They live on a
// separate listener so the public endpoint keeps redirecting every GET.
func SetupOpsRoutes(router *gin.Engine, health *handlers.HealthHandler, gatherer prometheus.Gatherer) {
	router.GET("/health", health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
