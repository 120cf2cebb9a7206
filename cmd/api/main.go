package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/campushub/ums-api/api/swagger"
	"github.com/campushub/ums-api/internal/handler"
	"github.com/campushub/ums-api/internal/repository"
	"github.com/campushub/ums-api/internal/router"
	"github.com/campushub/ums-api/internal/service"
	"github.com/campushub/ums-api/pkg/cache"
	"github.com/campushub/ums-api/pkg/config"
	"github.com/campushub/ums-api/pkg/database"
	"github.com/campushub/ums-api/pkg/logger"
	"github.com/campushub/ums-api/pkg/storage"
)

// @title UMS API
// @version 1.0.0
// @description University management backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	prerequisiteRepo := repository.NewPrerequisiteRepository(db)
	sessionCourseRepo := repository.NewSessionCourseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	bookRepo := repository.NewBookRepository(db)
	borrowingRepo := repository.NewBorrowingRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	chatRepo := repository.NewChatRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	committeeRepo := repository.NewCommitteeRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Reference reads go through Redis when caching is on.
	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, true)
	}

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ums-api",
	})
	accountSvc := service.NewAccountService(accountRepo, userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, referenceRepo, cacheSvc, validate, logr)
	prerequisiteSvc := service.NewPrerequisiteService(prerequisiteRepo, courseRepo, validate, logr)
	sessionCourseSvc := service.NewSessionCourseService(sessionCourseRepo, referenceRepo, courseRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, sessionCourseRepo, referenceRepo, accountRepo, validate, logr)
	referenceSvc := service.NewReferenceService(referenceRepo, cacheSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sessionCourseRepo, studentRepo, referenceRepo, metricsSvc, validate, logr)
	librarySvc := service.NewLibraryService(bookRepo, borrowingRepo, studentRepo, accountRepo, service.LibraryConfig{
		LoanPeriod:      cfg.Library.LoanPeriod,
		DailyFineAmount: cfg.Library.DailyFineAmount,
		MaxCopiesPerGen: cfg.Library.MaxCopiesPerGen,
		MaxActiveLoans:  cfg.Library.MaxActiveLoans,
	}, validate, logr)
	chatSvc := service.NewChatService(chatRepo, service.ChatConfig{
		PageSize:    cfg.Chat.PageSize,
		MaxBodySize: cfg.Chat.MaxBodySize,
	}, validate, logr)
	workspaceSvc := service.NewWorkspaceService(workspaceRepo, courseRepo, referenceRepo, chatSvc, validate, logr)
	quizSvc := service.NewQuizService(quizRepo, sessionCourseRepo, studentRepo, validate, logr)
	proposalSvc := service.NewProposalService(proposalRepo, scheduleRepo, referenceRepo, logr)
	alertSvc := service.NewAlertService(alertRepo, logr)
	committeeSvc := service.NewCommitteeService(committeeRepo, alertSvc, logr)
	faceRecSvc := service.NewFaceRecService(service.FaceRecConfig{
		BaseURL: cfg.FaceRec.BaseURL,
		Timeout: cfg.FaceRec.Timeout,
	}, logr)
	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	reportSvc := service.NewReportService(reportRepo, borrowingRepo, exportStore, service.ReportConfig{
		Workers:       cfg.Reports.WorkerConcurrency,
		Retries:       cfg.Reports.WorkerRetries,
		SigningSecret: cfg.JWT.Secret,
		LinkTTL:       cfg.Reports.LinkTTL,
		Retention:     cfg.Reports.Retention,
	}, metricsSvc, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watcher *service.TrainingWatcher
	if cfg.FaceRec.Enabled {
		watcher = service.NewTrainingWatcher(faceRecSvc, alertSvc, metricsSvc, cfg.FaceRec.PollInterval, logr)
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	if cfg.Reports.Enabled {
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
		go sweep(ctx, 6*time.Hour, logr, "stale exports", reportSvc.CleanupFiles)
	}

	if cfg.Quizzes.Enabled {
		go sweep(ctx, cfg.Quizzes.SweepInterval, logr, "quiz attempts", quizSvc.SweepExpired)
	}
	if cfg.Library.Enabled {
		go sweep(ctx, time.Hour, logr, "overdue loans", librarySvc.SweepOverdue)
	}

	engine := router.New(cfg, logr, router.Deps{
		Auth:          authSvc,
		Metrics:       metricsSvc,
		Users:         userRepo,
		AuthHandler:   handler.NewAuthHandler(authSvc),
		Accounts:      handler.NewAccountHandler(accountSvc),
		Courses:       handler.NewCourseHandler(courseSvc, prerequisiteSvc),
		SessionCourse: handler.NewSessionCourseHandler(sessionCourseSvc),
		Schedules:     handler.NewScheduleHandler(scheduleSvc),
		References:    handler.NewReferenceHandler(referenceSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Library:       handler.NewLibraryHandler(librarySvc),
		Workspaces:    handler.NewWorkspaceHandler(workspaceSvc),
		Chat:          handler.NewChatHandler(chatSvc),
		Quizzes:       handler.NewQuizHandler(quizSvc),
		Proposals:     handler.NewProposalHandler(proposalSvc),
		Committee:     handler.NewCommitteeHandler(committeeSvc),
		Alerts:        handler.NewAlertHandler(alertSvc),
		FaceRec:       handler.NewFaceRecHandler(faceRecSvc, watcher),
		Reports:       handler.NewReportHandler(reportSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// sweep runs fn on a fixed interval until ctx is cancelled.
func sweep(ctx context.Context, interval time.Duration, logr *zap.Logger, name string, fn func(context.Context) (int, error)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := fn(ctx)
			if err != nil {
				logr.Sugar().Warnw("sweep failed", "target", name, "error", err)
				continue
			}
			if n > 0 {
				logr.Sugar().Infow("sweep completed", "target", name, "affected", n)
			}
		}
	}
}
