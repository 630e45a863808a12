package main

import (
	"context"
	"log/slog"
	"os"

	"campaignpulse/internal/app"
	"campaignpulse/internal/config"
	"campaignpulse/internal/infrastructure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to create application", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("Report server stopped with error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
