package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"crouswatch/internal/api"
	"crouswatch/internal/config"
	"crouswatch/internal/extractor"
	"crouswatch/internal/fetcher"
	"crouswatch/internal/monitor"
	"crouswatch/internal/monitoring"
	"crouswatch/internal/notify"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Monitor settings, persisted between sessions
	settings := config.NewStore(cfg.SettingsFile, cfg.DefaultSettings(), logger)

	// Initialize Monitoring
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize Core Components
	pageFetcher := fetcher.New(cfg.SearchURL, cfg.FetchTimeoutDuration(), logger)
	listingExtractor, err := extractor.New(cfg.BaseURL)
	if err != nil {
		logger.Fatal("invalid base URL", zap.Error(err))
	}
	notifier := notify.NewTelegram(cfg.NotifyTimeoutDuration())

	mon := monitor.New(pageFetcher, listingExtractor, notifier, settings, metrics, logger)

	// Initialize API Server
	server := api.NewServer(cfg, mon, settings, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := mon.Stop(); err != nil && err != monitor.ErrNotRunning {
		logger.Error("could not stop monitor", zap.Error(err))
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
