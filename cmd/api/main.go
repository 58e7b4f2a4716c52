package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/launchlens/launchlens_api/internal/cache"
	"github.com/launchlens/launchlens_api/internal/config"
	"github.com/launchlens/launchlens_api/internal/database"
	"github.com/launchlens/launchlens_api/internal/handler"
	"github.com/launchlens/launchlens_api/internal/middleware"
	"github.com/launchlens/launchlens_api/internal/repository"
	"github.com/launchlens/launchlens_api/internal/service"
	"github.com/launchlens/launchlens_api/internal/worker"
	"github.com/launchlens/launchlens_api/pkg/groq"
)

// main is the application entrypoint for the LaunchLens API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting launchlens api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. The snapshot cache is an optimization, so a
	// missing Redis degrades chat to database lookups instead of aborting.
	var redisClient *cache.RedisClient
	var snapshotCache *cache.SnapshotCache
	if redisClient, err = cache.NewRedisClient(&cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("redis connection failed - snapshot cache disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		snapshotCache = cache.NewSnapshotCache(redisClient)
		log.Info().Msg("redis connected successfully")
	}

	// 4. Initialize external clients (constructed once, reused per request)
	groqClient := groq.NewClient(cfg.Groq.APIKey)

	// 5. Initialize repositories
	reportRepo := repository.NewReportRepository(db)

	// 6. Initialize services
	analysisSvc := service.NewAnalysisService(groqClient, &cfg.Groq)
	mediaSvc := service.NewMediaService(&cfg.S3)

	var reportSvc *service.ReportService
	var chatSvc *service.ChatService
	if snapshotCache != nil {
		reportSvc = service.NewReportService(reportRepo, analysisSvc, mediaSvc, snapshotCache)
		chatSvc = service.NewChatService(reportRepo, analysisSvc, snapshotCache)
	} else {
		reportSvc = service.NewReportService(reportRepo, analysisSvc, mediaSvc, nil)
		chatSvc = service.NewChatService(reportRepo, analysisSvc, nil)
	}

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisClient),
		Report:   handler.NewReportHandler(reportSvc),
		Analysis: handler.NewAnalysisHandler(reportSvc),
		Chat:     handler.NewChatHandler(chatSvc),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.ExtraOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	if snapshotCache != nil {
		go worker.NewSnapshotWorker(chatSvc, cfg.Worker.SnapshotInterval).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Report   *handler.ReportHandler
	Analysis *handler.AnalysisHandler
	Chat     *handler.ChatHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	v1 := router.Group("/v1")
	{
		v1.GET("/reports", handlers.Report.ListReports)
		v1.GET("/reports/:id", handlers.Report.GetReport)
		v1.POST("/reports", handlers.Report.CreateReport)
		v1.DELETE("/reports/:id", handlers.Report.DeleteReport)

		// Generative-model endpoints are rate limited per IP.
		aiLimiter := middleware.NewAnalysisRateLimiter(10, time.Minute)
		v1.POST("/analyze", aiLimiter.Handle(), handlers.Analysis.Analyze)
		v1.POST("/chat", aiLimiter.Handle(), handlers.Chat.Chat)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
