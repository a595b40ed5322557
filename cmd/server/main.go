package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/cache"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/config"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/etl"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/handlers"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/middleware"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories/postgres"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/services"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/validator"
	"github.com/carlosgs05/proyectoNewton-sub000/pkg"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("reporting service: %v", err)
	}
}

// run wires the service and blocks until SIGINT or SIGTERM. Every opened
// resource is closed on return.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := utils.NewLogger(cfg.Environment, os.Stdout)
	slogger := utils.ToSlogLogger(logger)

	sourceDB, err := pkg.InitDatabase(cfg.SourceDatabaseURL, cfg.Environment)
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer closeDatabase(logger, "source", sourceDB)

	datamartDB, err := pkg.InitDatabase(cfg.DatamartDatabaseURL, cfg.Environment)
	if err != nil {
		return fmt.Errorf("open datamart database: %w", err)
	}
	defer closeDatabase(logger, "datamart", datamartDB)

	if err := datamartDB.AutoMigrate(models.DatamartTables()...); err != nil {
		return fmt.Errorf("migrate datamart: %w", err)
	}

	var (
		reportCache cache.CacheService
		guard       services.ReloadGuard = services.NewLocalReloadGuard()
	)
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, running without report cache", "error", err)
		} else {
			defer redisClient.Close()
			reportCache = cache.NewRedisCache(redisClient, newCacheLogger(cfg.Environment))
			guard = services.NewRedisReloadGuard(redisClient, cfg.ReloadLockTTL, slogger)
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return fmt.Errorf("create event publisher: %w", err)
	}
	defer publisher.Close()

	sourceRepo := postgres.NewSourcePostgreSQL(sourceDB)
	datamartRepo := postgres.NewDatamartPostgreSQL(datamartDB)
	v := validator.New()

	loader := etl.NewLoader(sourceRepo, datamartRepo, cfg.StudentRole, slogger)
	reportService := services.NewReportService(datamartRepo, reportCache, cfg.ReportCacheTTL, v, slogger)

	handlerManager := handlers.NewHandlerManager(handlers.ServiceSet{
		ETL:             services.NewETLService(loader, guard, publisher, reportCache, slogger),
		Reports:         reportService,
		Export:          services.NewExportService(reportService, slogger),
		Recommendations: services.NewRecommendationService(sourceRepo, v, slogger),
	}, middleware.NewAdminGuard(cfg.Auth, logger), logger)

	if strings.EqualFold(cfg.Environment, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-shutdown:
	}

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func closeDatabase(logger utils.Logger, name string, db *gorm.DB) {
	if err := pkg.CloseDatabase(db); err != nil {
		logger.Warn("Failed to close database", "database", name, "error", err)
	}
}

func newCacheLogger(environment string) *zap.Logger {
	build := zap.NewDevelopment
	if strings.EqualFold(environment, "production") {
		build = zap.NewProduction
	}
	l, err := build()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("cache")
}
