package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/osa911/formrelay/internal/api/handlers"
	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/logging"
	"github.com/osa911/formrelay/internal/observability/metrics"
	"github.com/osa911/formrelay/internal/server/routes"
	"github.com/osa911/formrelay/internal/service"
	"github.com/osa911/formrelay/internal/telemetry"
	"github.com/osa911/formrelay/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	router  *gin.Engine
	ops     *gin.Engine
	tracing *telemetry.Tracing
}

func init() {
	// Disable Gin's default logger entirely because we're using our custom logger
	gin.SetMode(gin.ReleaseMode)
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard
}

// New wires the services and routes described by cfg
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg.Origin != "" && !utils.IsValidOrigin(cfg.Origin) {
		logger.Warn("ORIGIN %q is not of the form scheme://host[:port], browsers will never send it", cfg.Origin)
	}
	if cfg.Origin == "" && cfg.IsProduction() {
		logger.Warn("ORIGIN is not set, submissions are accepted from any origin")
	}
	if cfg.RedirectTarget() == "/" {
		// Every path is the form endpoint, so "/" redirects back to itself
		logger.Warn("Neither REDIRECTION_URL nor ORIGIN is set, non-POST requests will redirect to %q in a loop", "/")
	}

	tracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	formMetrics := metrics.NewFormMetrics(registry)

	client := &http.Client{Timeout: cfg.HTTPClientTimeout}
	if tracing.Enabled() {
		client.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	verifier := service.NewTurnstileService(cfg.TurnstileSecret, cfg.TurnstileVerifyURL, client)
	mailer, err := service.NewMailSender(ctx, cfg, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}

	h := &routes.Handlers{
		Form:    handlers.NewFormHandler(verifier, mailer, formMetrics, logger),
		Health:  handlers.NewHealthHandler(cfg.MailProvider),
		Metrics: formMetrics,
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		router:  NewEngine(h, optionsFromConfig(cfg, tracing.Enabled()), logger),
		tracing: tracing,
	}

	if cfg.MetricsAddr != "" {
		s.ops = gin.New()
		s.ops.Use(gin.Recovery())
		routes.SetupOpsRoutes(s.ops, h.Health, registry)
	}

	return s, nil
}

// NewEngine builds the public gin engine around already constructed handlers
func NewEngine(h *routes.Handlers, opts routes.Options, logger *logging.Logger) *gin.Engine {
	router := gin.New()
	routes.Setup(router, h, opts, logger)
	return router
}

func optionsFromConfig(cfg *config.Config, tracing bool) routes.Options {
	return routes.Options{
		Origin:         cfg.Origin,
		RedirectTarget: cfg.RedirectTarget(),
		ServiceName:    cfg.ServiceName,
		Tracing:        tracing,
	}
}

// Handler returns the public endpoint
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	servers := []*http.Server{{
		Addr:              net.JoinHostPort("", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if s.ops != nil {
		servers = append(servers, &http.Server{
			Addr:              s.cfg.MetricsAddr,
			Handler:           s.ops,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			s.logger.Info("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shut down %s: %v", srv.Addr, err)
		}
	}
	if err := s.tracing.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shut down tracing: %v", err)
	}

	return runErr
}
