package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/ovenline/production-api/internal/cache"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/logger"
	"github.com/ovenline/production-api/internal/notify"
	"github.com/ovenline/production-api/internal/router"
	"github.com/ovenline/production-api/internal/ws"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zapLogger)

	if cfg.WebhookToken == "" {
		zapLogger.Warn("WEBHOOK_TOKEN not set, chat intake is disabled")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		zapLogger.Fatal("ping database", zap.Error(err))
	}

	rdb, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("redis client", zap.Error(err))
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Pricing falls back to the database on every cache miss.
		zapLogger.Warn("redis unreachable, pricing cache degraded", zap.Error(err))
	}

	publisher, err := notify.Connect(cfg.NATSURL, zapLogger.Named("nats"))
	if err != nil {
		zapLogger.Fatal("connect nats", zap.Error(err))
	}
	defer publisher.Close()

	hub := ws.NewHub(zapLogger.Named("ws"))
	go hub.Run()

	r := router.New(cfg, router.Infra{
		Pool:    pool,
		Queries: database.New(pool),
		Hub:     hub,
		Cache:   cache.NewPriceCache(rdb, cfg.Production.PricingCacheTTL, zapLogger.Named("cache")),
		Events:  publisher,
		Logger:  zapLogger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}

	zapLogger.Info("server exited")
}
