package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/leaderboard-service/internal/auth"
	"github.com/SAP-F-2025/leaderboard-service/internal/cache"
	"github.com/SAP-F-2025/leaderboard-service/internal/config"
	"github.com/SAP-F-2025/leaderboard-service/internal/events"
	"github.com/SAP-F-2025/leaderboard-service/internal/handlers"
	"github.com/SAP-F-2025/leaderboard-service/internal/metrics"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/leaderboard-service/internal/services"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/SAP-F-2025/leaderboard-service/internal/validator"
	"github.com/SAP-F-2025/leaderboard-service/pkg"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Init database failed", "error", err)
		os.Exit(1)
	}
	if err := pkg.MigrateLeaderboard(db); err != nil {
		logger.Error("Migrate database failed", "error", err)
		os.Exit(1)
	}

	// The leaderboard works without redis, only slower.
	var pageCache cache.CacheService
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, leaderboard cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		pageCache = cache.NewRedisCache(redisClient, cfg.Leaderboard.CachePrefix, logger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		logger.Error("Create event publisher failed, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(logger.Slog())
	}
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	leaderboardService := services.NewLeaderboardService(services.LeaderboardServiceConfig{
		Repo:      postgres.NewRepository(db),
		Cache:     pageCache,
		Publisher: publisher,
		Metrics:   metrics.New(registry),
		Logger:    logger,
		Validator: validator.New(),
		Settings:  cfg.Leaderboard,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.ContextLogger(logger), utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(
		services.NewServiceManager(leaderboardService),
		auth.NewCasdoorVerifier(cfg.Casdoor),
		registry,
		logger,
	).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Leaderboard service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("Shutdown completed")
}
