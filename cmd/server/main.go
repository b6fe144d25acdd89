package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/auth"
	"github.com/PrepMaster-App/analytics-service/internal/cache"
	"github.com/PrepMaster-App/analytics-service/internal/config"
	"github.com/PrepMaster-App/analytics-service/internal/handlers"
	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/PrepMaster-App/analytics-service/internal/repositories/postgres"
	"github.com/PrepMaster-App/analytics-service/internal/services"
	"github.com/PrepMaster-App/analytics-service/internal/utils"
	"github.com/PrepMaster-App/analytics-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := utils.NewDefaultLogger()
	if cfg.Environment != "production" {
		appLogger = utils.NewDevelopmentLogger()
	}
	slogger := appLogger.Slog()

	policy, err := services.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		slogger.Error("Invalid merge policy", "policy", cfg.MergePolicy, "error", err)
		os.Exit(1)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		slogger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.TestResult{}, &models.QuestionResult{}); err != nil {
		slogger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	var cacheService cache.CacheService = cache.NoopCache{}
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			slogger.Warn("Redis unavailable, running without cache", "error", err)
		} else {
			defer redisClient.Close()
			cacheService = cache.NewRedisCache(redisClient, slogger)
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		slogger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	provider := auth.NewCasdoorProvider(cfg.Casdoor, slogger)
	repo := postgres.NewProgressPostgreSQL(db)
	validator := utils.NewValidator()

	aggregationService := services.NewAggregationService(repo, policy, cacheService, publisher, slogger, validator)
	analyticsService := services.NewAnalyticsService(repo, cacheService, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handlerManager := handlers.NewHandlerManager(provider, aggregationService, analyticsService, appLogger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slogger.Info("Analytics service listening",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"merge_policy", string(policy))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("Graceful shutdown failed", "error", err)
	}
}
