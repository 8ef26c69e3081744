package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"katalog/internal/config"
	"katalog/internal/handlers"
	"katalog/internal/logging"
	"katalog/internal/oauth"
	"katalog/internal/storage"
	"katalog/pkg/rabbitmq"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to connect to database: %v", err)
	}
	if err := Migrate(db); err != nil {
		zap.S().Fatalf("Failed to migrate database: %v", err)
	}
	zap.S().Infof("Database connection successful, driver: %s", cfg.DatabaseDriver)

	deps := Dependencies{DB: db}

	// --- Image storage ---
	images, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		zap.S().Fatalf("Failed to prepare upload storage: %v", err)
	}
	deps.Images = images

	// --- RabbitMQ (optional) ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			zap.S().Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit
		deps.Events = mqClient
	} else {
		zap.S().Info("RABBITMQ_URL not set, catalog events disabled")
	}

	// --- Google sign-in (optional) ---
	if cfg.GoogleEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		google, err := oauth.NewGoogleProvider(ctx, oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			BaseURL:      cfg.BaseURL,
		})
		cancel()
		if err != nil {
			zap.S().Fatalf("Failed to initialize Google sign-in: %v", err)
		}
		deps.Google = handlers.FederatedProvider(google)
	}

	app, _ := NewApp(cfg, deps)

	// --- Start HTTP Server ---
	zap.S().Infof("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			zap.S().Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	zap.S().Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		zap.S().Errorf("Error during Fiber shutdown: %v", err)
	}
	zap.S().Info("Server gracefully stopped")
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: logging.GormLogger(), TranslateError: true}
	if cfg.DatabaseDriver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormConfig)
	}
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), gormConfig)
}
