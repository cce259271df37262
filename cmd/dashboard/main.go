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
	"retaildq/internal/report"
	transport "retaildq/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: probe working directory)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
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
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create instruments", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := report.NewStore(cfg.Paths.Quality(), logger)
	server := transport.NewServer(cfg.Server, store, metrics, providers.PrometheusHTTP, logger)

	if err := server.Start(ctx); err != nil {
		logger.Error("Dashboard failed", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Metrics shutdown failed", slog.Any("error", err))
	}
}
