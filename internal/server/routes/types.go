package routes

import (
	"github.com/osa911/formrelay/internal/api/handlers"
	"github.com/osa911/formrelay/internal/observability/metrics"
)

// Handlers contains all the route handlers
type Handlers struct {
	Form    *handlers.FormHandler
	Health  *handlers.HealthHandler
	Metrics *metrics.FormMetrics
}

// Options carries the per-deployment settings the routes depend on
type Options struct {
	Origin         string
	RedirectTarget string
	ServiceName    string
	Tracing        bool
}
