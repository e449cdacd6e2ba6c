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

	_ "github.com/noah-isme/course-batch-api/api/swagger"
	"github.com/noah-isme/course-batch-api/internal/handler"
	"github.com/noah-isme/course-batch-api/internal/middleware"
	"github.com/noah-isme/course-batch-api/internal/models"
	"github.com/noah-isme/course-batch-api/internal/repository"
	"github.com/noah-isme/course-batch-api/internal/service"
	"github.com/noah-isme/course-batch-api/pkg/cache"
	"github.com/noah-isme/course-batch-api/pkg/config"
	"github.com/noah-isme/course-batch-api/pkg/database"
	"github.com/noah-isme/course-batch-api/pkg/jobs"
	"github.com/noah-isme/course-batch-api/pkg/lock"
	"github.com/noah-isme/course-batch-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-batch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-batch-api/pkg/middleware/requestid"
	"github.com/noah-isme/course-batch-api/pkg/notify"
)

// @title Course Batch API
// @version 1.0.0
// @description Course end dates, offerable slots and batch waiting lists
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.Batch.LockBackend == config.LockBackendRedis {
			logr.Sugar().Fatalw("redis required for batch locks", "error", err)
		}
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	batchRepo := repository.NewBatchRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "course-batch", logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduling.AvailabilityCacheTTL, logr, redisClient != nil)
	schedulingSvc := service.NewSchedulingService(staffRepo, courseRepo, enrollmentRepo, cacheSvc, service.SchedulingOptions{
		SlotGranularity:      cfg.Scheduling.SlotGranularity,
		LegacyClock:          cfg.Scheduling.LegacyClock,
		AvailabilityCacheTTL: cfg.Scheduling.AvailabilityCacheTTL,
	}, validate, logr)

	notificationSvc, notificationQueue := buildNotifications(cfg.Notifications, studentRepo, courseRepo, metricsSvc, logr)
	if notificationQueue != nil {
		notificationQueue.Start(ctx)
		defer notificationQueue.Stop()
	}

	batchSvc := service.NewBatchAssignmentService(
		batchRepo,
		enrollmentRepo,
		courseRepo,
		paymentRepo,
		schedulingSvc,
		notificationSvc,
		buildLocker(cfg.Batch, redisClient, logr),
		metricsSvc,
		service.BatchAssignmentOptions{
			DefaultMaxStudents: cfg.Batch.DefaultMaxStudents,
			LockTimeout:        cfg.Batch.LockTimeout,
		},
		validate,
		logr,
	)
	reportSvc := service.NewReportService(completionRepo, validate, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.DelaySweeper.Enabled {
		sweeper := service.NewDelaySweeper(batchRepo, metricsSvc, cfg.DelaySweeper.Schedule, logr)
		if err := sweeper.Start(ctx); err != nil {
			logr.Sugar().Fatalw("delay sweeper failed to start", "error", err)
		}
		defer sweeper.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, cacheRepo))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), tokenSvc, routeHandlers{
		scheduling: handler.NewSchedulingHandler(schedulingSvc),
		batches:    handler.NewBatchHandler(batchSvc),
		reports:    handler.NewReportHandler(reportSvc),
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

type routeHandlers struct {
	scheduling *handler.SchedulingHandler
	batches    *handler.BatchHandler
	reports    *handler.ReportHandler
}

func registerRoutes(api *gin.RouterGroup, tokens middleware.TokenValidator, h routeHandlers) {
	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.POST("/scheduling/end-date", h.scheduling.EndDate)
	secured.GET("/staff/:id/slots", h.scheduling.Slots)
	secured.GET("/staff/:id/frequencies", h.scheduling.Frequencies)
	secured.GET("/staff/:id/session-lengths", h.scheduling.SessionLengths)
	secured.POST("/batches/assign", h.batches.Assign)

	operators := secured.Group("")
	operators.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleStaff))
	operators.POST("/enrollments/:id/end-date", h.scheduling.RecomputeEnrollment)
	operators.GET("/batches", h.batches.List)
	operators.GET("/batches/waiting-list", h.batches.WaitingList)
	operators.GET("/batches/vacant", h.batches.Vacant)
	operators.GET("/batches/delayed", h.batches.Delayed)
	operators.POST("/batches/:id/waiting/:studentId/approve", h.batches.Approve)
	operators.POST("/batches/:id/waiting/:studentId/disapprove", h.batches.Disapprove)
	operators.POST("/batches/:id/students/:studentId/complete", h.batches.Complete)
	operators.GET("/reports/staff-completions", h.reports.StaffCompletions)
}

func buildLocker(cfg config.BatchConfig, client redis.UniversalClient, logr *zap.Logger) lock.Locker {
	if cfg.LockBackend == config.LockBackendRedis && client != nil {
		return lock.NewRedisLocker(client, "course-batch:lock:", cfg.LockTTL, logr)
	}
	return lock.NewKeyedMutex()
}

// buildNotifications returns a nil service when no channel is configured.
func buildNotifications(cfg config.NotificationConfig, students *repository.StudentRepository, courses *repository.CourseRepository, metricsSvc *service.MetricsService, logr *zap.Logger) (*service.NotificationService, *jobs.Queue) {
	if !cfg.Enabled {
		return nil, nil
	}

	var email *notify.SendGridMailer
	if cfg.SendGridAPIKey != "" {
		mailer, err := notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.SendGridFromName)
		if err != nil {
			logr.Warn("email channel disabled", zap.Error(err))
		} else {
			email = mailer
		}
	}
	var sms *notify.TwilioSMS
	if cfg.TwilioAccountSID != "" {
		client, err := notify.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
		if err != nil {
			logr.Warn("sms channel disabled", zap.Error(err))
		} else {
			sms = client
		}
	}
	if email == nil && sms == nil {
		logr.Warn("notifications enabled but no channel configured")
		return nil, nil
	}

	svc := service.NewNotificationService(students, courses, emailOrNil(email), smsOrNil(sms), metricsSvc, logr)
	queue := jobs.NewQueue("notifications", svc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: 2 * time.Second,
		JobTimeout: 15 * time.Second,
		Logger:     logr,
	})
	svc.UseQueue(queue)
	return svc, queue
}

// emailOrNil and smsOrNil keep typed nil pointers out of the service's interfaces.
func emailOrNil(m *notify.SendGridMailer) interface {
	Send(context.Context, notify.Email) error
} {
	if m == nil {
		return nil
	}
	return m
}

func smsOrNil(s *notify.TwilioSMS) interface {
	Send(context.Context, string, string) error
} {
	if s == nil {
		return nil
	}
	return s
}

func readinessChecks(db *sqlx.DB, cacheRepo *repository.CacheRepository) map[string]handler.ReadinessCheck {
	return map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	}
}
