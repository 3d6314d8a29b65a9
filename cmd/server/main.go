package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ardiwn/gymflow-api/api/swagger"
	"github.com/ardiwn/gymflow-api/internal/handler"
	internalmiddleware "github.com/ardiwn/gymflow-api/internal/middleware"
	"github.com/ardiwn/gymflow-api/internal/models"
	"github.com/ardiwn/gymflow-api/internal/repository"
	"github.com/ardiwn/gymflow-api/internal/service"
	"github.com/ardiwn/gymflow-api/pkg/cache"
	"github.com/ardiwn/gymflow-api/pkg/config"
	"github.com/ardiwn/gymflow-api/pkg/database"
	"github.com/ardiwn/gymflow-api/pkg/logger"
	corsmiddleware "github.com/ardiwn/gymflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ardiwn/gymflow-api/pkg/middleware/requestid"
)

// @title GymFlow API
// @version 1.0.0
// @description Gym session booking and trainer scheduling service
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Cache is an optimization; the API runs without it.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db, metricsService)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	availabilityCache := service.NewCacheService(cacheRepo, metricsService, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled)
	dashboardCache := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	trainerService := service.NewTrainerService(trainerRepo, validate, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, trainerRepo, validate, logr)
	availabilityService := service.NewAvailabilityService(trainerRepo, sessionRepo, availabilityCache, cfg.Availability.CacheTTL, logr)
	bookingService := service.NewBookingService(service.BookingServiceParams{
		Sessions:        sessionRepo,
		Trainers:        trainerRepo,
		Assignments:     assignmentRepo,
		Availability:    availabilityService,
		Validator:       validate,
		Metrics:         metricsService,
		Logger:          logr,
		ConflictRetries: cfg.Booking.ConflictRetries,
	})
	sessionService := service.NewSessionService(sessionRepo, cfg.Booking.DefaultPageSize, cfg.Booking.MaxPageSize, logr)
	dashboardService := service.NewDashboardService(sessionRepo, dashboardCache, cfg.Dashboard.CacheTTL, cfg.Dashboard.TopTrainers, logr)

	authHandler := handler.NewAuthHandler(authService)
	trainerHandler := handler.NewTrainerHandler(trainerService, availabilityService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	sessionHandler := handler.NewSessionHandler(bookingService, sessionService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)
	trainer := string(models.RoleTrainer)
	member := string(models.RoleMember)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authService))

	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/trainers", trainerHandler.List)
	secured.POST("/trainers", internalmiddleware.RBAC(admin), trainerHandler.Create)
	secured.GET("/trainers/:id", trainerHandler.Get)
	secured.PUT("/trainers/:id", internalmiddleware.RBAC(admin), trainerHandler.Update)
	secured.DELETE("/trainers/:id", internalmiddleware.RBAC(admin), trainerHandler.Deactivate)
	secured.GET("/trainers/:id/schedule", trainerHandler.WeeklySchedule)
	secured.PUT("/trainers/:id/schedule", internalmiddleware.RBAC(admin, "SELF"), trainerHandler.ReplaceWeeklySchedule)
	secured.GET("/trainers/:id/availability", trainerHandler.Availability)

	secured.GET("/members/:id/trainers", internalmiddleware.RBAC(admin, trainer, "SELF"), assignmentHandler.List)
	secured.POST("/members/:id/trainers", internalmiddleware.RBAC(admin), assignmentHandler.Create)
	secured.PUT("/members/:id/trainers/:assignmentId", internalmiddleware.RBAC(admin), assignmentHandler.Update)
	secured.DELETE("/members/:id/trainers/:assignmentId", internalmiddleware.RBAC(admin), assignmentHandler.Delete)

	secured.POST("/sessions", internalmiddleware.RBAC(admin, member), sessionHandler.Book)
	secured.GET("/sessions", sessionHandler.List)
	secured.GET("/sessions/export", internalmiddleware.RBAC(admin), sessionHandler.Export)
	secured.GET("/sessions/:id", sessionHandler.Get)
	secured.POST("/sessions/:id/cancel", sessionHandler.Cancel)
	secured.POST("/sessions/:id/complete", internalmiddleware.RBAC(trainer), sessionHandler.Complete)

	secured.GET("/dashboards/members/:id", internalmiddleware.RBAC(admin, "SELF"), dashboardHandler.MemberOverview)
	secured.GET("/dashboards/trainers/:id", internalmiddleware.RBAC(admin, "SELF"), dashboardHandler.TrainerOverview)
	secured.GET("/dashboards/top-trainers", internalmiddleware.RBAC(admin), dashboardHandler.TopTrainers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
