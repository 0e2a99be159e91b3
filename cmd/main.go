package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"support-agent/handler"
	"support-agent/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := bootstrap.FromEnv()
	if err != nil {
		slog.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}

	// ---- Clients and services ----
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to wire support engine", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(app.Support, handler.WithBasePath(os.Getenv("BASE_PATH")))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
