// cmd/sandbox/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-client/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-client/internal/interfaces/http"
	"github.com/your-org/storefront-client/internal/pkg/logger"
)

func main() {
	reset := flag.Bool("reset", false, "drop every sandbox table before migrating")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg).WithField("component", "sandbox")
	log.Infof("🚀 Starting %s sandbox v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Health(); err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}

	// Redis backs rate limiting and idempotent replay; the sandbox runs without it
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewConnection(cfg, log)
		if err != nil {
			log.Warnf("Redis unavailable, rate limiting and idempotent replay disabled: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)

	if *reset {
		if err := migration.DropAllTables(); err != nil {
			log.Fatalf("Dropping tables failed: %v", err)
		}
	}

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.Warnf("Index creation failed: %v", err)
	}

	if cfg.Sandbox.Seed {
		if err := migration.SeedInitialData(cfg.Security.BcryptCost); err != nil {
			log.Warnf("Data seeding failed: %v", err)
		}
		if err := migration.GetTableInfo(); err != nil {
			log.Warnf("Reading table info failed: %v", err)
		}
	}

	log.Info("✅ All systems operational!")

	server := http.NewServer(cfg, postgres.NewRepository(db.GetDB()), db, redisClient, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("👋 Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Info("✅ Server shutdown completed")
}
