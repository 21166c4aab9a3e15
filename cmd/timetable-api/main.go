package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/migrations"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timetable generation, conflict detection and projections for school courses.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grid, err := buildGrid(cfg.Scheduler)
	if err != nil {
		logr.Fatal("invalid scheduler grid", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db.DB, migrations.FS, cfg.Database.MigrationTable, logr.Named("migrate"))
		if err != nil {
			logr.Fatal("failed to prepare migrations", zap.Error(err))
		}
		if err := migrator.Up(ctx); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// The timetable still works without the projection cache.
			logr.Warn("redis unavailable, projection cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	metricsSvc := service.NewMetricsService()

	var (
		cacheRepo  service.CacheRepository
		redisCache *repository.CacheRepository
	)
	if redisClient != nil {
		redisCache = repository.NewCacheRepository(redisClient, logr)
		cacheRepo = redisCache
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, redisCache != nil)

	timetableSvc := service.NewTimetableService(
		repository.NewCourseRepository(db),
		repository.NewResourceRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewScheduleLock(),
		repository.NewRunRepository(db),
		db,
		cacheSvc,
		metricsSvc,
		validator.New(),
		logr.Named("timetable"),
		service.TimetableConfig{
			Grid:             grid,
			MaxIterations:    cfg.Scheduler.MaxIterations,
			ValidateOnCommit: cfg.Scheduler.ValidateOnCommit,
			RunTimeout:       cfg.Scheduler.RunTimeout,
		},
	)

	runner := service.NewGenerationRunner(timetableSvc, metricsSvc, logr.Named("generation"), service.GenerationRunnerConfig{
		MaxRetries:   cfg.Scheduler.AsyncRetries,
		HistoryLimit: cfg.Scheduler.RunHistoryLimit,
	})
	runner.Start(ctx)
	defer runner.Stop()

	projectionSvc := service.NewProjectionService(timetableSvc, cacheSvc, logr.Named("projection"))
	exportSvc := service.NewExportService(projectionSvc, logr.Named("export"), nil, nil)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisCache))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		tokens:      tokenSvc,
		timetable:   handler.NewTimetableHandler(timetableSvc, runner),
		projections: handler.NewProjectionHandler(projectionSvc, exportSvc),
		metrics:     metricsHandler,
		audit:       logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeDeps struct {
	tokens      internalmiddleware.TokenVerifier
	timetable   *handler.TimetableHandler
	projections *handler.ProjectionHandler
	metrics     *handler.MetricsHandler
	audit       *zap.Logger
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	writers := internalmiddleware.RequireRoles(internalmiddleware.TimetableWriters...)
	readers := internalmiddleware.RequireRoles(internalmiddleware.TimetableReaders...)
	audit := func(action string) gin.HandlerFunc {
		return internalmiddleware.Audit(deps.audit, action, "timetable")
	}

	secured := api.Group("", internalmiddleware.JWT(deps.tokens))

	timetable := secured.Group("/timetable")
	timetable.POST("/generate", writers, audit("generate"), deps.timetable.Generate)
	timetable.POST("/generate/async", writers, audit("generate_async"), deps.timetable.GenerateAsync)
	timetable.GET("/generate/runs", readers, deps.timetable.ListRuns)
	timetable.GET("/generate/runs/:id", readers, deps.timetable.RunStatus)
	timetable.GET("/verify", readers, deps.timetable.Verify)
	timetable.GET("/view", readers, deps.projections.View)
	timetable.GET("/export", readers, deps.projections.Export)
	timetable.POST("/courses/:id/conflicts", readers, deps.timetable.CheckConflicts)
	timetable.PUT("/courses/:id/schedule", writers, audit("commit_schedule"), deps.timetable.CommitSchedule)
	timetable.DELETE("/courses/:id/schedule", writers, audit("clear_schedule"), deps.timetable.ClearSchedule)

	secured.GET("/metrics/summary", writers, deps.metrics.Snapshot)
}

func buildGrid(cfg config.SchedulerConfig) (*scheduler.Grid, error) {
	if len(cfg.WorkingDays) == 0 {
		return scheduler.DefaultGrid(), nil
	}
	days, err := scheduler.ParseDays(cfg.WorkingDays)
	if err != nil {
		return nil, err
	}
	return scheduler.NewGrid(days, cfg.DayStartHour, cfg.DayEndHour)
}

func readinessChecks(db *sqlx.DB, redisCache *repository.CacheRepository) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisCache != nil {
		checks["redis"] = redisCache.Ping
	}
	return checks
}
