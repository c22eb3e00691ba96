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
	"github.com/fpd-risk-server/internal/database"
	"github.com/fpd-risk-server/internal/domain"
	"github.com/fpd-risk-server/internal/history"
	"github.com/fpd-risk-server/internal/scoring"
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
	logger := newLogger(&cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting FPD Risk Server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Assessment history (optional)
	var store history.Store
	if cfg.History.Enabled {
		databaseURL := database.URL(&cfg.Database)

		runner, err := database.NewMigrationRunner(databaseURL, cfg.Database.MigrationsPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create migration runner")
		}
		if err := runner.Up(); err != nil {
			logger.WithError(err).Fatal("Failed to apply migrations")
		}
		runner.Close()

		// Pool connection verifies database health at startup
		db, err := database.NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		store, err = history.NewPostgresStoreFromURL(databaseURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create history store")
		}
		defer store.Close()
	} else {
		logger.Info("Assessment history disabled")
	}

	// Cache: Redis when configured, in-memory otherwise
	var assessmentCache domain.AssessmentCache
	if url := configManager.GetRedisConnectionString(); url != "" {
		redisCache, err := cache.NewRedisCache(url, cfg.Cache.DefaultTTL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		assessmentCache = redisCache
	} else {
		assessmentCache = cache.NewMemoryCache(cfg.Cache.MaxItems, cfg.Cache.DefaultTTL)
	}

	engine := scoring.NewEngine(logger)
	server := api.NewServer(configManager, engine, assessmentCache, store, logger)

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

	logger.Info("Server stopped")
}

func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
