// Package main provides the lightweight entry point for the FPD risk HTTP
// server. This version requires no external databases - uses in-memory
// caching and SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fpd-risk-server/internal/api"
	"github.com/fpd-risk-server/internal/cache"
	"github.com/fpd-risk-server/internal/config"
	"github.com/fpd-risk-server/internal/history"
	"github.com/fpd-risk-server/internal/scoring"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	logger := logrus.New()
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithField("data_dir", cfg.DataDir).Info("Starting FPD Risk Server (Lite)")

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
	if err != nil {
		log.Fatalf("Failed to create history store: %v", err)
	}
	defer store.Close()

	engine := scoring.NewEngine(logger)
	memCache := cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)

	server := api.NewServer(cfg.AsManager(), engine, memCache, store, logger)

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

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("FPD Risk Server (Lite) stopped")
}
