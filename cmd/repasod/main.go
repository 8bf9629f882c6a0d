package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jktrolbot/opositaplus-sub000/internal/api"
	"github.com/jktrolbot/opositaplus-sub000/internal/config"
	"github.com/jktrolbot/opositaplus-sub000/internal/events"
	"github.com/jktrolbot/opositaplus-sub000/internal/review"
	"github.com/jktrolbot/opositaplus-sub000/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting repasod...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/repasod.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// PostgreSQL holds progress and catalogs; the service cannot run without it.
	st, err := store.New(cfg.Database.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("PostgreSQL unavailable", zap.Error(err))
	}
	if err := st.Migrate(context.Background(), "migrations"); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// Review-event feed is optional; degrade to no events when Redis is down.
	var publisher *events.Publisher
	var sink review.EventSink
	if cfg.Database.Redis.URL != "" {
		p, pubErr := events.NewPublisher(cfg.Database.Redis.URL, logger)
		if pubErr != nil {
			logger.Warn("Redis unavailable, running without review events", zap.Error(pubErr))
		} else {
			publisher = p
			sink = p
			logger.Info("Review event feed initialized")
		}
	}

	selector := review.NewSelector(st, st, st, logger)
	service := review.NewService(st, st, st, sink, cfg.Review.DesiredRetention, logger)

	handler := api.NewHandler(selector, service, cfg.Review, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("repasod listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down repasod...")
	srv.Shutdown(context.Background())
	if publisher != nil {
		publisher.Close()
	}
	st.Close()
}
