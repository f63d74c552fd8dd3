package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/rsharda/bahikhata-api/internal/config"
	"github.com/rsharda/bahikhata-api/internal/database"
	"github.com/rsharda/bahikhata-api/internal/handlers"
	"github.com/rsharda/bahikhata-api/internal/jobs"
	"github.com/rsharda/bahikhata-api/internal/middleware"
	"github.com/rsharda/bahikhata-api/internal/repository"
	"github.com/rsharda/bahikhata-api/internal/services"
	"github.com/rsharda/bahikhata-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg)

	// Schedule the daily interest batch
	svcs.Batch.Start(cfg.BatchFireHour, cfg.BatchFireMinute, cfg.BatchMisfireGrace)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Stop scheduling new batch runs; one in flight finishes below.
	svcs.Batch.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", h.Health.Index)

		// Accounts
		v1.POST("/accounts", h.Account.Create)
		account := v1.Group("/accounts/:account_id")
		{
			account.GET("", h.Account.Show)
			account.GET("/ledger", h.Account.Ledger)
			account.PUT("/freeze_interest", h.Account.FreezeInterest)

			// Ledger operations
			account.POST("/sales", h.Payment.RecordSale)
			account.POST("/payments", h.Payment.RecordPayment)
			account.POST("/writeoff", h.Payment.WriteOff)

			// Risk
			account.GET("/risk", h.Risk.Profile)
			account.POST("/risk/evaluate", h.Risk.Evaluate)
			account.POST("/flags", h.Risk.ApplyFlag)
			account.POST("/reinstate", h.Risk.Reinstate)
		}

		// Interest batch
		batch := v1.Group("/batch")
		{
			batch.POST("/run", h.Batch.Run)
			batch.GET("/latest", h.Batch.LatestRun)
			batch.GET("/runs", h.Batch.Runs)
			batch.GET("/status", h.Batch.Status)
		}
	}

	return router
}
