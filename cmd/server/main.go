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
	"github.com/redis/go-redis/v9"
	appaudit "github.com/shopledger/backend/internal/application/audit"
	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
	reportapp "github.com/shopledger/backend/internal/application/report"
	salesapp "github.com/shopledger/backend/internal/application/sales"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"github.com/shopledger/backend/internal/infrastructure/lock"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/shopledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			ShopLedger API
//	@version		1.0
//	@description	Inventory ledger, point-of-sale and GST reporting for small shops

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// stockAlertTTL keeps a low-stock alert from repeating within the same day
const stockAlertTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Log export tees records to the collector when enabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		bridged, err := telemetry.NewBridgedLogger(logCfg, logProvider, cfg.Telemetry.ServiceName)
		if err != nil {
			log.Fatal("Failed to bridge logger", zap.Error(err))
		}
		log = bridged
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ShopLedger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	location, err := cfg.Sales.Location()
	if err != nil {
		log.Fatal("Invalid sales timezone", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if err := telemetry.NewDBTracing(cfg.Telemetry, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Postgres schemas are owned by cmd/migrate; sqlite dev databases migrate in place
	if cfg.Database.AutoMigrate || db.Driver == config.DriverSQLite {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database schema migrated")
	}

	// Redis backs the sale lock, token revocation and alert deduplication.
	// Without it every process falls back to in-memory equivalents.
	var (
		redisClient *redis.Client
		locker      salesapp.Locker = salesapp.NoOpLocker{}
		revocations auth.RevocationStore
		dedupStore  event.Deduplicator
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		locker = lock.NewRedisLocker(redisClient, lock.DefaultOptions(), log)
		revocations = auth.NewRedisRevocationStore(redisClient)
		dedupStore = cache.NewRedisDedupStore(redisClient, "shopledger:dedup:")
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memDedup := cache.NewInMemoryDedupStore()
		defer func() { _ = memDedup.Close() }()
		revocations = auth.NewInMemoryRevocationStore()
		dedupStore = memDedup
		log.Warn("Redis disabled; sale lock, token revocation and alert dedup are process-local")
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	stockAlerts := inventoryapp.NewStockBelowThresholdHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log))
	eventBus.Subscribe(event.NewDedupHandler(stockAlerts, dedupStore, event.StockAlertPerDay, stockAlertTTL, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Initialize application services
	auditService := appaudit.NewService(auditRepo, log)

	productService := inventoryapp.NewProductService(persistence.NewGormTransactionScope(db.DB), productRepo, movementRepo, log)
	productService.SetAuditLogger(auditService)
	productService.SetEventPublisher(eventBus)
	queryService := inventoryapp.NewQueryService(productRepo, movementRepo)

	saleService := salesapp.NewSaleService(persistence.NewGormSaleTransactionScope(db.DB), saleRepo, salesapp.Config{
		DefaultGSTRate: cfg.Sales.DefaultGSTRate,
		Location:       location,
		LockTTL:        cfg.Sales.LockTTL,
	}, log)
	saleService.SetLocker(locker)
	saleService.SetAuditLogger(auditService)
	saleService.SetEventPublisher(eventBus)
	if meterProvider.IsEnabled() {
		saleMetrics, err := telemetry.NewSaleMetrics(meterProvider.Meter(telemetry.MeterName))
		if err != nil {
			log.Fatal("Failed to create sale metrics", zap.Error(err))
		}
		saleService.SetMetrics(saleMetrics)
	}

	gstService := reportapp.NewGSTService(saleRepo, invoiceRepo, reportapp.Config{
		ShopGSTIN: cfg.Sales.ShopGSTIN,
		Location:  location,
	}, log)
	gstService.SetAuditLogger(auditService)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Health checks
	checks := []handler.HealthCheck{{
		Name:  "database",
		Check: func(context.Context) error { return db.Ping() },
	}}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	handlers := router.Handlers{
		Health:  handler.NewHealthHandler(version, checks...),
		Auth:    handler.NewAuthHandler(revocations),
		Product: handler.NewProductHandler(productService, queryService),
		Sale:    handler.NewSaleHandler(saleService),
		GST:     handler.NewGSTHandler(gstService),
		Audit:   handler.NewAuditHandler(auditService),
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	// Request ID must run first so every later middleware can log it
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("shopledger/http"), log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	authenticate := middleware.JWTAuth(middleware.JWTConfig{
		Validator:   jwtService,
		Revocations: revocations,
		Logger:      log,
	})
	r := router.Mount(engine, handlers, authenticate)
	log.Info("Routes registered", zap.String("base_path", r.BasePath()))

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Log provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
