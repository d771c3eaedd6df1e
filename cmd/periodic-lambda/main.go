// Command periodic-lambda serves the element API from AWS Lambda behind an
// API Gateway HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/periodic/config"
	"github.com/jacentio/periodic/httpapi"
	"github.com/jacentio/periodic/internal/app"
)

func main() {
	cfg, err := config.Load(os.Getenv("PERIODIC_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "periodic-lambda:", err)
		os.Exit(1)
	}
	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "periodic-lambda:", err)
		os.Exit(1)
	}

	a, err := app.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	lambda.Start(httpapi.LambdaHandler(a.Handler()))
}
