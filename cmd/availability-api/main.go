package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorhive/availability-api/api/swagger"
	"github.com/tutorhive/availability-api/internal/handler"
	"github.com/tutorhive/availability-api/internal/middleware"
	"github.com/tutorhive/availability-api/internal/repository"
	"github.com/tutorhive/availability-api/internal/service"
	"github.com/tutorhive/availability-api/pkg/cache"
	"github.com/tutorhive/availability-api/pkg/config"
	"github.com/tutorhive/availability-api/pkg/database"
	"github.com/tutorhive/availability-api/pkg/jobs"
	"github.com/tutorhive/availability-api/pkg/logger"
	corsmiddleware "github.com/tutorhive/availability-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorhive/availability-api/pkg/middleware/requestid"
)

// @title Tutor Availability API
// @version 1.0.0
// @description Recurring availability scheduling for the tutoring platform
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it calendars are expanded on every request.
	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled)

	ruleRepo := repository.NewAvailabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	availabilitySvc := service.NewAvailabilityService(ruleRepo, sessionRepo, cacheSvc, metricsSvc, service.AvailabilityConfig{
		DefaultTimezone: cfg.Availability.DefaultTimezone,
		MaxWindowDays:   cfg.Availability.MaxWindowDays,
		CacheTTL:        cfg.Availability.CacheTTL,
		PrewarmDays:     cfg.Availability.PrewarmDays,
	}, logr)
	exportSvc := service.NewExportService(availabilitySvc, cfg.Export.Enabled, logr, nil, nil)

	prewarmQueue := jobs.NewQueue("calendar-prewarm", availabilitySvc.HandlePrewarmJob, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	prewarmQueue.Start(ctx)
	defer prewarmQueue.Stop()
	availabilitySvc.SetPrewarmQueue(prewarmQueue)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/tutors/:id/availability", availabilityHandler.GetCalendar)
		api.POST("/tutors/:id/availability/import", availabilityHandler.Import)
		api.GET("/tutors/:id/availability/export", exportHandler.Export)

		api.POST("/availability/rules", availabilityHandler.CreateRule)
		api.PUT("/availability/rules/:id", availabilityHandler.UpdateRule)
		api.DELETE("/availability/rules/:id", availabilityHandler.DeleteRule)
		api.POST("/availability/slots", availabilityHandler.CreateSlot)
		api.POST("/availability/conflicts/check", availabilityHandler.CheckConflicts)

		api.GET("/system/metrics", metricsHandler.Snapshot)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
