package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/osa-screening-server/internal/api"
	"github.com/osa-screening-server/internal/cache"
	"github.com/osa-screening-server/internal/config"
	"github.com/osa-screening-server/internal/logging"
	"github.com/osa-screening-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logging.Close(logger)

	resultCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create result cache")
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	evaluator := service.NewEvaluationService(logger, nil, resultCache)
	server := api.NewServer(configManager, evaluator, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithField("environment", cfg.Environment).Infof("Starting OSA screening server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		cancel()
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
