package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	tabapp "github.com/salonsuite/backend/internal/application/tab"
	"github.com/salonsuite/backend/internal/infrastructure/collaborators"
	"github.com/salonsuite/backend/internal/infrastructure/config"
	"github.com/salonsuite/backend/internal/infrastructure/lock"
	"github.com/salonsuite/backend/internal/infrastructure/logger"
	"github.com/salonsuite/backend/internal/infrastructure/persistence"
	"github.com/salonsuite/backend/internal/interfaces/http/handler"
	"github.com/salonsuite/backend/internal/interfaces/http/middleware"
	"github.com/salonsuite/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

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

	log.Info("Starting SalonSuite Tab Engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Per-tab mutation lock backed by Redis
	locker, err := lock.NewRedisTabLocker(lock.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Engine.LockTTL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis lock connected", zap.Duration("ttl", cfg.Engine.LockTTL))

	// Repositories and collaborator adapters
	tabRepo := persistence.NewGormTabRepository(db.DB)
	collab := tabapp.Collaborators{
		Inventory:   collaborators.NewGormInventory(db.DB),
		CashDrawer:  collaborators.NewGormCashDrawer(db.DB),
		Sessions:    collaborators.NewGormPrepaidSessions(db.DB),
		Recipes:     collaborators.NewGormRecipeResolver(db.DB),
		Commissions: collaborators.NewGormCommissions(db.DB),
		Loyalty:     collaborators.NewGormLoyalty(db.DB),
		Clients:     collaborators.NewGormClientDirectory(db.DB),
		Catalog:     collaborators.NewGormCatalog(db.DB),
		Fees:        collaborators.NewGormFeeRules(db.DB),
		Staff:       collaborators.NewGormStaffDirectory(db.DB),
	}

	// Application service
	tabService := tabapp.NewService(tabRepo, locker, collab, tabapp.Config{
		PaymentTolerance:   decimal.New(int64(cfg.Engine.PaymentToleranceCents), -2),
		ReopenMinReasonLen: cfg.Engine.ReopenMinReasonLen,
		CommissionPercent:  decimal.NewFromFloat(cfg.Engine.CommissionPercent),
	}, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Middleware stack: request id, panic recovery, request logging,
	// then the actor context every tab route requires
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	systemHandler := handler.NewSystemHandler(db, version)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.ActorContextWithConfig(middleware.ActorContextConfig{
		SkipPaths: []string{
			"/api/v1/system/health",
			"/api/v1/system/info",
		},
	}))
	r.Register(handler.NewTabHandler(tabService)).
		Register(systemHandler).
		Setup()

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

// healthHandler returns a handler for the root health check endpoint
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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
