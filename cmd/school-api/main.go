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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-admin-api/api/swagger"
	"github.com/noah-isme/school-admin-api/internal/handler"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/routes"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/cache"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	"github.com/noah-isme/school-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
)

// @title School Admin API
// @version 1.0.0
// @description Student, teacher, course, room, mark and class session administration with conflict-checked scheduling.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	courses := repository.NewCourseRepository(db)
	rooms := repository.NewRoomRepository(db)
	sessions := repository.NewClassSessionRepository(db)
	marks := repository.NewMarkRepository(db)
	dashboard := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(service.AuthServiceParams{
		Users:     users,
		Students:  students,
		Teachers:  teachers,
		DB:        db,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
		Config: service.AuthConfig{
			AccessTokenSecret:   cfg.JWT.Secret,
			AccessTokenExpiry:   cfg.JWT.Expiration,
			Issuer:              cfg.JWT.Issuer,
			RegistrationEnabled: cfg.Auth.RegistrationEnabled,
		},
	})
	scheduleSvc := service.NewScheduleService(service.ScheduleServiceParams{
		Sessions:  sessions,
		Courses:   courses,
		Teachers:  teachers,
		Rooms:     rooms,
		Tx:        db,
		Exporter:  service.NewExportService(sessions, logr, nil, nil),
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:    dashboard,
		Cache:   cacheSvc,
		Metrics: metrics,
		Logger:  logr,
		Config:  service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	handlers := routes.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, handler.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}),
		Students:  handler.NewStudentHandler(service.NewStudentService(students, users, db, cacheSvc, validate, logr)),
		Teachers:  handler.NewTeacherHandler(service.NewTeacherService(teachers, users, db, cacheSvc, validate, logr)),
		Courses:   handler.NewCourseHandler(service.NewCourseService(courses, cacheSvc, validate, logr)),
		Rooms:     handler.NewRoomHandler(service.NewRoomService(rooms, validate, logr)),
		Schedules: handler.NewScheduleHandler(scheduleSvc),
		Marks: handler.NewMarkHandler(
			service.NewMarkService(marks, courses, students, cacheSvc, validate, logr),
			service.NewGradeReportService(marks, students, db, cfg.Grades.CreditHoursPerCourse, logr),
		),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Metrics:   handler.NewMetricsHandler(metrics, db),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	routes.Register(r, handlers, routes.Options{
		Prefix:     cfg.APIPrefix,
		Tokens:     authSvc,
		CookieName: cfg.Auth.CookieName,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
