// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/migrate"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/pos-backend/internal/infrastructure/database/redis"
	"github.com/your-org/pos-backend/internal/interfaces/http"
	"github.com/your-org/pos-backend/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Health(); err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}

	// Redis is optional; without it caching and rate limiting are off.
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache and rate limiting")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	migration := migrate.NewMigration(db.GetDB(), cfg, log)

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation failed")
	}

	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
		if err := migration.GetTableInfo(); err != nil {
			log.WithError(err).Warn("could not read table info")
		}
	}

	server := http.NewServer(cfg, db.GetDB(), redisClient, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("failed to shutdown HTTP server gracefully")
	}

	log.Info("server shutdown completed")
}
