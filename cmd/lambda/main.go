package main

import (
	"context"
	"fmt"
	"os"

	"github.com/osa911/formrelay/internal/server"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg, logger, err := server.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	// Configuration is read once per cold start
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to create server: %v", err)
		os.Exit(1)
	}

	lambda.Start(srv.NewLambdaHandler())
}
