package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"retaildq/internal/config"
	"retaildq/internal/infrastructure"
	"retaildq/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: probe working directory)")
	dataDir := flag.String("data-dir", "", "override the data directory")
	flag.Parse()

	// A local .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.Any("error", err))
		os.Exit(1)
	}
	defer infrastructure.CloseLogger()

	providers, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		logger.Error("Failed to initialize metrics", slog.Any("error", err))
		os.Exit(1)
	}
	defer providers.Shutdown(context.Background())

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create pipeline metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, logger, metrics)
	r, err := runner.Execute(ctx)
	if err != nil {
		logger.Error("Run failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Alerts are part of a successful run: they are reported, not
	// treated as failures.
	logger.Info("Run complete",
		slog.String("run_id", r.RunID),
		slog.Duration("duration", r.Duration()),
		slog.Int("alerts", len(r.Alerts)),
		slog.Bool("clean", r.Clean()))
	for _, a := range r.Alerts {
		logger.Warn("Alert", slog.String("alert", a))
	}
}
