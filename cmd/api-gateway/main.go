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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-events-api/api/swagger"
	"github.com/noah-isme/campus-events-api/internal/clock"
	"github.com/noah-isme/campus-events-api/internal/handler"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/cache"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/export"
	"github.com/noah-isme/campus-events-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-events-api/pkg/signing"
)

const shutdownTimeout = 10 * time.Second

// @title Campus Events API
// @version 1.0.0
// @description Gateway for the public events calendar and the moderation console
// @BasePath /api/v1
// @schemes http https
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, sessions resolve through the backend and listings are not cached", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	if err := service.RegisterFilterValidations(validate); err != nil {
		logr.Fatal("failed to register validations", zap.Error(err))
	}

	location := clock.LoadLocation(cfg.Events.Timezone)
	clk := clock.NewSystem(location)
	sorter := service.NewEventSorter(cfg.Events.Collation)
	policy := service.NewAccessPolicy()

	backend := repository.NewBackendClient(cfg.Backend, metrics, logr)
	eventRepo := repository.NewEventRepository(backend)
	adminRepo := repository.NewAdminRepository(backend)
	sessionRepo := repository.NewSessionRepository(redisClient)

	var cacheRepo service.CacheRepository
	readyChecks := map[string]handler.Pinger{"backend": backend}
	if redisClient != nil {
		redisCache := repository.NewCacheRepository(redisClient, logr)
		cacheRepo = redisCache
		readyChecks["redis"] = redisCache
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.EventTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	eventSvc := service.NewEventService(eventRepo, cacheSvc, sorter, clk, service.ViewConfig{
		PageSize:      cfg.Events.PageSize,
		FeaturedCount: cfg.Events.FeaturedCount,
	}, validate, logr)
	adminEventSvc := service.NewAdminEventService(eventRepo, cacheSvc, policy, sorter, clk, validate, logr)
	adminSvc := service.NewAdminService(adminRepo, policy, validate, logr)
	authSvc := service.NewAuthService(adminRepo, sessionRepo, validate, logr, service.AuthConfig{SessionTTL: cfg.Session.TTL})
	exportSvc := service.NewExportService(
		eventSvc,
		signing.NewFeedSigner(cfg.Feeds.SigningSecret, cfg.Feeds.TTL),
		metrics,
		service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			PublicURL: cfg.Feeds.PublicURL,
			Location:  location,
		},
		logr,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		export.NewICalExporter("-//campus-events-api//EN"),
	)

	eventHandler := handler.NewEventHandler(eventSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	adminEventHandler := handler.NewAdminEventHandler(adminEventSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, readyChecks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	events := api.Group("/events")
	events.GET("", eventHandler.List)
	events.GET("/featured", eventHandler.Featured)
	events.GET("/filters/options", eventHandler.FilterOptions)
	events.GET("/search", eventHandler.Search)
	events.GET("/date-range", eventHandler.DateRange)
	events.GET("/export.csv", exportHandler.Export(service.ExportCSV))
	events.GET("/export.pdf", exportHandler.Export(service.ExportPDF))
	events.GET("/export.ics", exportHandler.Export(service.ExportICal))
	events.POST("/subscriptions", exportHandler.Subscribe)
	events.POST("/:id/register", eventHandler.Register)

	api.GET("/feeds/:token", exportHandler.Feed)

	requireSession := middleware.RequireSession(authSvc)
	// Detail forwards the caller's token when one is present.
	events.GET("/:id", middleware.OptionalSession(authSvc), eventHandler.Get)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", requireSession, authHandler.Logout)
	auth.GET("/profile", requireSession, authHandler.Profile)
	auth.PUT("/profile", requireSession, authHandler.UpdateProfile)
	auth.PUT("/password", requireSession, authHandler.ChangePassword)

	admin := api.Group("/admin", requireSession, middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	adminEvents := admin.Group("/events")
	adminEvents.GET("", adminEventHandler.List)
	adminEvents.GET("/stats", adminEventHandler.Stats)
	adminEvents.GET("/drafts", adminEventHandler.Drafts)
	adminEvents.GET("/pending", middleware.RequireSuperAdmin(), adminEventHandler.Pending)
	adminEvents.POST("", middleware.Audit(logr, "create", "event"), adminEventHandler.Create)
	adminEvents.GET("/:id", adminEventHandler.Get)
	adminEvents.PUT("/:id", middleware.Audit(logr, "update", "event"), adminEventHandler.Update)
	adminEvents.DELETE("/:id", middleware.Audit(logr, "delete", "event"), adminEventHandler.Delete)
	adminEvents.PUT("/:id/approve", middleware.RequireSuperAdmin(), middleware.Audit(logr, "approve", "event"), adminEventHandler.Approve)
	adminEvents.PUT("/:id/reject", middleware.RequireSuperAdmin(), middleware.Audit(logr, "reject", "event"), adminEventHandler.Reject)
	adminEvents.GET("/:id/attendees", adminEventHandler.Attendees)
	admin.PUT("/attendees/:id/status", middleware.Audit(logr, "update_status", "attendee"), adminEventHandler.UpdateAttendeeStatus)

	accounts := admin.Group("/accounts", middleware.RequireSuperAdmin())
	accounts.GET("", adminHandler.List)
	accounts.POST("", middleware.Audit(logr, "create", "admin"), adminHandler.Create)
	accounts.GET("/:id", adminHandler.Get)
	accounts.PUT("/:id", middleware.Audit(logr, "update", "admin"), adminHandler.Update)
	accounts.DELETE("/:id", middleware.Audit(logr, "delete", "admin"), adminHandler.Delete)
	accounts.PUT("/:id/role", middleware.Audit(logr, "change_role", "admin"), adminHandler.ChangeRole)
	accounts.PUT("/:id/permissions", middleware.Audit(logr, "update_permissions", "admin"), adminHandler.UpdatePermissions)
	accounts.PUT("/:id/activate", middleware.Audit(logr, "activate", "admin"), adminHandler.Activate)
	accounts.PUT("/:id/deactivate", middleware.Audit(logr, "deactivate", "admin"), adminHandler.Deactivate)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	case <-stopCtx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}
