package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/osa911/formrelay/internal/server"
	"github.com/osa911/formrelay/internal/version"
)

func main() {
	cfg, logger, err := server.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting formrelay %s in %s mode (mail provider: %s)", version.Info(), cfg.Environment, cfg.MailProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create server: %v", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
