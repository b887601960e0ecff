package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/application/storesync"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/ecommerce"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/persistence"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"github.com/storesync/backend/internal/interfaces/http/router"
)

const (
	version          = "1.0.0"
	slowSQLThreshold = 200 * time.Millisecond
	shutdownTimeout  = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting store sync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	otelProviders, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracesEnabled:     cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	syncMetrics, err := telemetry.NewSyncMetrics(otelProviders.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Database with zap-backed GORM logger and otelgorm spans
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), slowSQLThreshold)
	db, err := persistence.NewDatabase(ctx, &cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Analytics cache
	analyticsCache, err := cache.NewAnalyticsCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to create analytics cache", zap.Error(err))
	}

	// Platform adapters
	sources, err := ecommerce.NewDefaultRegistry(&ecommerce.Config{
		TimeoutSeconds:        int(cfg.Sync.RequestTimeout / time.Second),
		RequestsPerSecond:     cfg.Sync.RequestsPerSecond,
		BigCommerceAPIBaseURL: cfg.Sync.BigCommerceAPIURL,
		ShopifyAPIVersion:     cfg.Sync.ShopifyAPIVersion,
		UserAgent:             cfg.App.Name + "/" + version,
	})
	if err != nil {
		log.Fatal("Failed to configure platform adapters", zap.Error(err))
	}

	// Repositories and services
	integrationRepo := persistence.NewGormStoreIntegrationRepository(db.DB)
	orderRepo := persistence.NewGormStoreOrderRepository(db.DB)
	metricRepo := persistence.NewGormDailyMetricRepository(db.DB)
	profileRepo := persistence.NewGormProfileRepository(db.DB)
	transactor := persistence.NewGormTransactor(db.DB)

	syncService := storesync.NewSyncService(integrationRepo, sources, transactor,
		storesync.SyncServiceConfig{
			MaxConcurrent: cfg.Sync.MaxConcurrent,
			SyncTimeout:   cfg.Sync.SyncTimeout,
		},
		storesync.WithAnalyticsCache(analyticsCache),
		storesync.WithSyncMetrics(syncMetrics),
		storesync.WithLogger(log),
	)
	analyticsService := storesync.NewAnalyticsService(integrationRepo, orderRepo, metricRepo, analyticsCache, cfg.Cache.TTL, log)

	jwtService := auth.NewJWTService(cfg.Auth)
	if cfg.Sync.CronSecret == "" {
		log.Warn("sync.cron_secret is empty, scheduled sync calls are disabled")
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(router.EngineConfig{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     otelProviders.TracingEnabled(),
		},
	}, log)
	router.RegisterRoutes(engine, router.Handlers{
		StoreSync:      handler.NewStoreSyncHandler(syncService, jwtService, profileRepo, cfg.Sync.CronSecret, log),
		StoreAnalytics: handler.NewStoreAnalyticsHandler(analyticsService, profileRepo, log),
		System:         handler.NewSystemHandler(db, version),
	}, jwtService, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	_ = otelProviders.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}
