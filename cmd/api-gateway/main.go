package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/jbernadas/islalist-pwa/api/swagger"
	"github.com/jbernadas/islalist-pwa/internal/handler"
	internalmiddleware "github.com/jbernadas/islalist-pwa/internal/middleware"
	"github.com/jbernadas/islalist-pwa/internal/repository"
	"github.com/jbernadas/islalist-pwa/internal/service"
	"github.com/jbernadas/islalist-pwa/pkg/cache"
	"github.com/jbernadas/islalist-pwa/pkg/config"
	"github.com/jbernadas/islalist-pwa/pkg/database"
	"github.com/jbernadas/islalist-pwa/pkg/jobs"
	"github.com/jbernadas/islalist-pwa/pkg/logger"
	corsmiddleware "github.com/jbernadas/islalist-pwa/pkg/middleware/cors"
	reqidmiddleware "github.com/jbernadas/islalist-pwa/pkg/middleware/requestid"
)

// @title IslaList API
// @version 1.0.0
// @description Location-aware classifieds and community announcements for the Philippines
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.Enabled {
		if err := database.Migrate(db, cfg.Migrations.Dir, logr); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Locations.CacheTTL, logr, cfg.Locations.CacheEnabled)

	locationRepo := repository.NewLocationRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	listingRepo := repository.NewListingRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	userRepo := repository.NewUserRepository(db)
	moderatorRepo := repository.NewModeratorRepository(db)

	validate := validator.New()
	zone := cfg.Location()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	locationSvc := service.NewLocationService(locationRepo, cacheSvc, cfg.Locations.CacheTTL, logr)
	categorySvc := service.NewCategoryService(categoryRepo, cacheSvc, cfg.Locations.CacheTTL, logr)
	directory := locationSvc.Directory()
	listingSvc := service.NewListingService(listingRepo, categoryRepo, locationSvc, directory, metrics, validate, logr, cfg.Listings.Lifetime)
	announcementSvc := service.NewAnnouncementService(announcementRepo, locationSvc, directory, metrics, validate, logr, zone)
	moderationSvc := service.NewModerationService(moderatorRepo, locationSvc, directory, listingRepo, announcementRepo, userRepo, logr)
	sweepSvc := service.NewSweepService(listingRepo, announcementRepo, metrics, logr, zone)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, redisClient) }
	}
	ops := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Locations:     handler.NewLocationHandler(locationSvc),
		Categories:    handler.NewCategoryHandler(categorySvc),
		Listings:      handler.NewListingHandler(listingSvc, categorySvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc),
		Moderation:    handler.NewModerationHandler(moderationSvc, logr),
	}, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Sweeper.Enabled {
		sweeps := jobs.NewQueue("expiry-sweeper", sweepSvc.Handle, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: 2,
			RetryDelay: 30 * time.Second,
			Logger:     logr,
		})
		sweeps.Start(ctx)
		defer sweeps.Stop()
		go jobs.Every(ctx, sweeps, cfg.Sweeper.Interval, sweepSvc.Job)
	}

	if misplaced, err := locationSvc.CheckCodePrefixes(ctx); err != nil {
		logr.Warn("location code audit failed", zap.Error(err))
	} else if len(misplaced) > 0 {
		logr.Warn("location data has misplaced municipality codes", zap.Int("count", len(misplaced)))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
