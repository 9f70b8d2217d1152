package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lineageapp "github.com/erp/lineage/internal/application/lineage"
	domain "github.com/erp/lineage/internal/domain/lineage"
	"github.com/erp/lineage/internal/infrastructure/cache"
	"github.com/erp/lineage/internal/infrastructure/config"
	"github.com/erp/lineage/internal/infrastructure/logger"
	"github.com/erp/lineage/internal/infrastructure/persistence"
	"github.com/erp/lineage/internal/infrastructure/telemetry"
	"github.com/erp/lineage/internal/interfaces/http/handler"
	"github.com/erp/lineage/internal/interfaces/http/middleware"
	"github.com/erp/lineage/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting lineage service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize distributed tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize repositories
	entityRepo := persistence.NewGormEntityRepository(db.DB)
	var relationRepo domain.RelationRepository = persistence.NewGormRelationRepository(db.DB)

	// Wrap the relation store with a cache when enabled
	var relationCache cache.RelationCache
	if cfg.Cache.Enabled {
		cacheFactory := cache.NewRelationCacheFactory(cfg.Redis, cfg.Cache, cache.WithLogger(log))
		relationCache, err = cacheFactory.CreateCache()
		if err != nil {
			log.Fatal("Failed to initialize relation cache", zap.Error(err))
		}
		relationRepo = cache.NewCachingRelationRepository(relationRepo, relationCache, cfg.Cache.TTL, log)
		log.Info("Relation cache enabled",
			zap.String("backend", cfg.Cache.Backend),
			zap.Duration("ttl", cfg.Cache.TTL),
		)
	}
	defer func() {
		if relationCache != nil {
			if err := relationCache.Close(); err != nil {
				log.Error("Error closing relation cache", zap.Error(err))
			}
		}
	}()

	// Register status resolvers for all known entity types
	resolvers := domain.NewResolverRegistry()
	if err := lineageapp.RegisterBuiltinResolvers(resolvers); err != nil {
		log.Fatal("Failed to register status resolvers", zap.Error(err))
	}

	// Trace engine and application service
	traceEngine := domain.NewTraceEngine(relationRepo, entityRepo, resolvers)
	lineageService := lineageapp.NewLineageService(
		entityRepo,
		relationRepo,
		resolvers,
		traceEngine,
		lineageapp.WithTraceDefaults(
			cfg.Trace.DefaultMaxDepth,
			cfg.Trace.ChainDepth,
			cfg.Trace.MaxVisits,
			cfg.Trace.MaxDepthLimit,
		),
		lineageapp.WithServiceLogger(log),
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewLineageHandler(lineageService))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness of the service and its database.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
