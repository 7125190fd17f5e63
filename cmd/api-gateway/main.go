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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edustack/school-portal-api/api/swagger"
	"github.com/edustack/school-portal-api/internal/handler"
	"github.com/edustack/school-portal-api/internal/middleware"
	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	"github.com/edustack/school-portal-api/internal/service"
	"github.com/edustack/school-portal-api/pkg/ai"
	"github.com/edustack/school-portal-api/pkg/cache"
	"github.com/edustack/school-portal-api/pkg/config"
	"github.com/edustack/school-portal-api/pkg/database"
	"github.com/edustack/school-portal-api/pkg/jobs"
	"github.com/edustack/school-portal-api/pkg/logger"
	corsmiddleware "github.com/edustack/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edustack/school-portal-api/pkg/middleware/requestid"
	"github.com/edustack/school-portal-api/pkg/storage"
)

// @title School Portal API
// @version 1.0.0
// @description School administration and AI content portal
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	uploadStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	patternRepo := repository.NewPatternRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	generatedRepo := repository.NewGeneratedRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	activitySvc := service.NewActivityService(activityRepo, logr)
	authSvc := service.NewAuthService(userRepo, schoolRepo, activityRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "school-portal-api",
		Audience:           []string{"school-portal"},
	})
	schoolSvc := service.NewSchoolService(schoolRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, validate, logr)
	paperSvc := service.NewPaperService(paperRepo, patternRepo, redisClient, cacheSvc, validate, logr, service.PaperConfig{
		SaveDebounceTTL: cfg.Papers.SaveDebounceTTL,
		ListCacheTTL:    cfg.Papers.ListCacheTTL,
	})
	patternSvc := service.NewPatternService(patternRepo, validate, logr)
	approvalSvc := service.NewApprovalService(approvalRepo, paperRepo, validate, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, validate, logr)
	aiClient := ai.NewClient(cfg.AI)
	generationSvc := service.NewGenerationService(aiClient, generatedRepo, paperRepo, uploadStorage, metricsSvc, validate, logr, service.GenerationConfig{
		QuizRetries: cfg.AI.QuizRetries,
	})
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(exportJobRepo, paperRepo, leaveRepo, schoolRepo, exportStorage, signer, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	go sweepExpiredExports(ctx, exportStorage, cfg.Exports.FileRetention, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	schoolHandler := handler.NewSchoolHandler(schoolSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	paperHandler := handler.NewPaperHandler(paperSvc)
	patternHandler := handler.NewPatternHandler(patternSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	generationHandler := handler.NewGenerationHandler(generationSvc, cfg.Uploads.MaxFileSizeBytes)
	exportHandler := handler.NewExportHandler(exportSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public routes
	api.POST("/auth/register", authHandler.RegisterSchool)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/exports/download/:token", exportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/activities", activityHandler.List)
	authed.GET("/metrics/snapshot", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	// School profile and book catalogue
	authed.GET("/school", schoolHandler.Get)
	authed.GET("/school/books", schoolHandler.ListBooks)
	adminSchool := authed.Group("")
	adminSchool.Use(middleware.RequireRoles(models.RoleAdmin))
	adminSchool.PUT("/school", schoolHandler.Update)
	adminSchool.POST("/school/books", schoolHandler.AddBook)
	adminSchool.DELETE("/school/books/:id", schoolHandler.DeleteBook)

	// Teacher administration
	authed.GET("/teachers", teacherHandler.List)
	authed.GET("/teachers/:id", teacherHandler.Get)
	authed.GET("/teachers/:id/subjects", teacherHandler.ListSubjects)
	adminTeachers := authed.Group("")
	adminTeachers.Use(middleware.RequireRoles(models.RoleAdmin))
	adminTeachers.POST("/teachers", teacherHandler.Create)
	adminTeachers.PUT("/teachers/:id", teacherHandler.Update)
	adminTeachers.POST("/teachers/:id/subjects", teacherHandler.AddSubject)
	adminTeachers.DELETE("/teachers/:id/subjects/:subjectId", teacherHandler.DeleteSubject)

	// Exam papers
	papers := authed.Group("/papers")
	papers.POST("", paperHandler.Create)
	papers.POST("/from-pattern/:patternId", paperHandler.CreateFromPattern)
	papers.GET("", paperHandler.List)
	papers.GET("/:id", paperHandler.Get)
	papers.PUT("/:id", paperHandler.Save)
	papers.DELETE("/:id", paperHandler.Delete)
	papers.POST("/:id/sections", paperHandler.AddSection)
	papers.PUT("/:id/sections/:sectionId", paperHandler.UpdateSection)
	papers.DELETE("/:id/sections/:sectionId", paperHandler.DeleteSection)
	papers.POST("/:id/sections/:sectionId/questions", paperHandler.AddQuestion)
	papers.PUT("/:id/sections/:sectionId/questions/:questionId", paperHandler.UpdateQuestion)
	papers.DELETE("/:id/sections/:sectionId/questions/:questionId", paperHandler.DeleteQuestion)
	papers.POST("/:id/sections/:sectionId/questions/:questionId/subparts", paperHandler.AddSubpart)
	papers.PUT("/:id/sections/:sectionId/questions/:questionId/subparts/:subpartId", paperHandler.UpdateSubpart)
	papers.DELETE("/:id/sections/:sectionId/questions/:questionId/subparts/:subpartId", paperHandler.DeleteSubpart)
	papers.GET("/:id/marks", paperHandler.Marks)
	papers.POST("/:id/confirm", middleware.Audit(activitySvc, "paper.confirm", "papers"), paperHandler.Confirm)
	papers.GET("/:id/export/json", paperHandler.ExportJSON)
	papers.POST("/:id/export", exportHandler.Enqueue)
	papers.POST("/:id/send-for-approval", middleware.Audit(activitySvc, "paper.submit", "papers"), approvalHandler.Submit)
	papers.POST("/:id/approval", middleware.Audit(activitySvc, "paper.decide", "papers"), approvalHandler.Decide)

	// Approvals
	authed.GET("/approvals/pending", approvalHandler.Pending)
	authed.GET("/approvals", approvalHandler.ListForSchool)

	// Patterns
	authed.POST("/patterns", patternHandler.Create)
	authed.GET("/patterns", patternHandler.List)
	authed.GET("/patterns/:id", patternHandler.Get)
	authed.DELETE("/patterns/:id", patternHandler.Delete)

	// Curriculum and teaching logs
	authed.POST("/curriculum", curriculumHandler.CreateEntry)
	authed.GET("/curriculum", curriculumHandler.ListEntries)
	authed.PUT("/curriculum/:id", curriculumHandler.UpdateEntry)
	authed.DELETE("/curriculum/:id", curriculumHandler.DeleteEntry)
	authed.POST("/teaching-logs", curriculumHandler.CreateLog)
	authed.GET("/teaching-logs", curriculumHandler.ListLogs)

	// Leave applications
	authed.POST("/leaves", leaveHandler.Apply)
	authed.GET("/leaves", leaveHandler.List)
	authed.POST("/leaves/:id/decide", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(activitySvc, "leave.decide", "leaves"), leaveHandler.Decide)

	// AI generation
	generate := authed.Group("/generate")
	generate.POST("/paper", generationHandler.GeneratePaper)
	generate.POST("/quiz", generationHandler.GenerateQuiz)
	generate.POST("/study-plan", generationHandler.GenerateStudyPlan)
	generate.POST("/mind-map", generationHandler.GenerateMindMap)
	generate.POST("/summary/text", generationHandler.SummarizeText)
	generate.POST("/summary/document", generationHandler.SummarizeDocument)
	generate.POST("/summary/web", generationHandler.SummarizeWeb)
	generate.GET("/history", generationHandler.History)

	// Export jobs and CSV reports
	authed.GET("/exports/:id", exportHandler.GetJob)
	adminExports := authed.Group("")
	adminExports.Use(middleware.RequireRoles(models.RoleAdmin))
	adminExports.GET("/exports/leaves.csv", exportHandler.LeaveCSV)
	adminExports.GET("/exports/papers.csv", exportHandler.PapersCSV)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
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

// sweepExpiredExports periodically prunes export files past the retention
// window, so finished downloads do not accumulate on disk forever.
func sweepExpiredExports(ctx context.Context, store *storage.LocalStorage, retention time.Duration, logr *zap.Logger) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(retention)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(removed))
			}
		}
	}
}
