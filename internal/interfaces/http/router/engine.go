package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// Gateway paths answer CORS themselves
const (
	GatewayPath      = "/functions/v1/sync-store"
	GatewayAliasPath = "/api/v1/store-sync"
)

// EngineConfig configures the middleware stack
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
}

// Handlers are the HTTP handlers served by the engine
type Handlers struct {
	StoreSync      *handler.StoreSyncHandler
	StoreAnalytics *handler.StoreAnalyticsHandler
	System         *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware stack in order:
// request ID, tracing, request logging, panic recovery, security headers,
// CORS and the body size limit.
func NewEngine(cfg EngineConfig, log *zap.Logger) *gin.Engine {
	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	cors.AllowCredentials = true
	cors.SkipPaths = []string{GatewayPath, GatewayAliasPath}
	engine.Use(middleware.CORSWithConfig(cors))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	return engine
}

// RegisterRoutes mounts every route of the API on engine
func RegisterRoutes(engine *gin.Engine, h Handlers, verifier auth.TokenVerifier, log *zap.Logger) {
	r := NewRouter(engine, WithAPIVersion("v1"))

	functions := NewDomainGroup("functions", "/functions/v1")
	functions.OPTIONS("/sync-store", h.StoreSync.Preflight).
		POST("/sync-store", h.StoreSync.Trigger)

	health := NewDomainGroup("health", "/health")
	health.GET("", h.System.Health).
		GET("/live", h.System.Live)

	r.Mount(functions).Mount(health)

	storeSync := NewDomainGroup("store-sync", "/store-sync")
	storeSync.OPTIONS("", h.StoreSync.Preflight).
		POST("", h.StoreSync.Trigger)

	clients := NewDomainGroup("clients", "/clients/:client_id")
	clients.Use(middleware.BearerAuth(verifier, log))
	clients.GET("/store/summary", h.StoreAnalytics.GetSummary).
		GET("/store/comparison", h.StoreAnalytics.GetComparison)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	r.Register(storeSync).
		Register(clients).
		Register(system)

	r.Setup()
}
