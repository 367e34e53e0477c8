package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/marketsync/backend/internal/application/integration"
	"github.com/marketsync/backend/internal/infrastructure/cache"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/infrastructure/marketplace"
	"github.com/marketsync/backend/internal/infrastructure/persistence"
	"github.com/marketsync/backend/internal/infrastructure/scheduler"
	"github.com/marketsync/backend/internal/interfaces/http/handler"
	"github.com/marketsync/backend/internal/interfaces/http/router"
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

	log.Info("Starting marketplace sync engine",
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

	// Redis backs the per-marketplace cycle lease
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Initialize repositories
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	productMappingRepo := persistence.NewGormProductMappingRepository(db.DB)
	orderMappingRepo := persistence.NewGormOrderMappingRepository(db.DB)
	webhookEventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	mappingResolver := persistence.NewGormMappingResolver(db.DB)
	localCatalog := persistence.NewGormLocalCatalog(db.DB)
	localOrders := persistence.NewGormLocalOrders(db.DB)

	// Build one gateway per marketplace with configured credentials
	credentials := config.NewCredentialStore(cfg)
	registry := marketplace.NewRegistry(credentials, logger.Named(log, "gateway"),
		marketplace.WithTimeout(cfg.Sync.GatewayTimeout),
		marketplace.WithMaxAttempts(cfg.Sync.GatewayMaxAttempts),
	)
	log.Info("Marketplace gateways initialized", zap.Int("count", len(registry.All())))

	// Initialize application services
	productSync := syncapp.NewProductSyncService(jobRepo, productMappingRepo, localCatalog, mappingResolver, registry, logger.Named(log, "product-sync"))
	orderSync := syncapp.NewOrderSyncService(jobRepo, orderMappingRepo, localCatalog, localOrders, registry, logger.Named(log, "order-sync"))
	webhookService := syncapp.NewWebhookService(credentials, webhookEventRepo, orderSync, localCatalog, logger.Named(log, "webhook"))
	adminService := syncapp.NewSyncAdminService(jobRepo, productMappingRepo, orderMappingRepo, webhookEventRepo)

	// Cycle runner drives the periodic reconciliation
	cycleLock := scheduler.NewRedisSyncLock(redisClient, "")
	cycleRunner := scheduler.NewCycleRunner(
		scheduler.CycleRunnerConfig{
			LockTTL:     cfg.Sync.LockTTL,
			StuckJobAge: cfg.Sync.StuckJobAge,
			Lookback:    cfg.Sync.OrderLookback,
		},
		jobRepo, productSync, orderSync, registry, cycleLock,
		logger.Named(log, "cycle"),
	)

	if cfg.Sync.Enabled {
		trigger := scheduler.NewCronTrigger(
			scheduler.CronTriggerConfig{
				Interval:  cfg.Sync.CycleInterval,
				Intervals: cfg.SyncIntervals(),
			},
			cycleRunner,
			logger.Named(log, "trigger"),
		)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync trigger", zap.Error(err))
			}
		}()
		log.Info("Sync trigger started", zap.Duration("interval", cfg.Sync.CycleInterval))
	}

	// Initialize HTTP surface
	systemHandler := handler.NewSystemHandler(
		handler.PingerFunc(func(context.Context) error { return db.Ping() }),
		handler.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		registry,
	)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	syncHandler := handler.NewSyncHandler(adminService, productSync, orderSync, cycleRunner)

	ginMode := gin.DebugMode
	if cfg.App.Env == "production" {
		ginMode = gin.ReleaseMode
	}
	engine := router.New(router.Config{
		Mode:    ginMode,
		Logger:  log,
		System:  systemHandler,
		Webhook: webhookHandler,
		Sync:    syncHandler,
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

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
