package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/gradebook-api/api/swagger"
	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/cache"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/requestid"
)

// @title Gradebook API
// @version 0.1.0
// @description Grades aggregation engine for the school dashboards
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	// Redis is optional: without it the engine still serves, just without
	// the summary cache.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary cache disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Summary.CacheTTL, logr, false)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Summary.CacheTTL, logr, true)
	}

	levelRepo := repository.NewLevelRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	quarterRepo := repository.NewQuarterRepository(db)

	scale := service.NewLetterScale(cfg.Grading)
	weights := service.NewAttendanceWeights(cfg.Grading)
	validate := validator.New()

	hierarchySvc := service.NewHierarchyService(levelRepo, classRepo, subjectRepo, studentRepo, logr)
	journalSvc := service.NewJournalService(lessonRepo, studentRepo, scoreRepo, quarterRepo, validate, logr)
	session := service.NewJournalSession(journalSvc, logr)
	summarySvc := service.NewSummaryService(service.SummaryServiceParams{
		Enrollments: classRepo,
		Subjects:    subjectRepo,
		Lessons:     lessonRepo,
		Scores:      scoreRepo,
		Attendance:  attendanceRepo,
		Quarters:    quarterRepo,
		Guardians:   studentRepo,
		Scale:       scale,
		Weights:     weights,
		Cache:       cacheSvc,
		Logger:      logr,
		Config:      service.SummaryServiceConfig{Concurrency: cfg.Summary.Concurrency},
	})

	var fallback *service.FallbackProvider
	if cfg.Fallback.Enabled {
		fallback = service.NewFallbackProvider(scale, weights)
	}

	hierarchyHandler := handler.NewHierarchyHandler(hierarchySvc)
	journalHandler := handler.NewJournalHandler(session, journalSvc, summarySvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc, fallback, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Actor(cfg.JWT.Secret))
	{
		api.GET("/levels", hierarchyHandler.Levels)
		api.GET("/classes", hierarchyHandler.Classes)
		api.GET("/classes/mine", middleware.RequireRole(models.RoleTeacher), hierarchyHandler.MyClasses)
		api.GET("/classes/:id/subjects", hierarchyHandler.Subjects)
		api.GET("/quarters", journalHandler.Quarters)

		staff := api.Group("", middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
		{
			staff.GET("/classes/:id/subjects/:sid/journal", journalHandler.Journal)
			staff.GET("/classes/:id/subjects/:sid/journal/export", journalHandler.Export)
			staff.POST("/scores", journalHandler.WriteScore)
		}

		api.GET("/students/:id/summaries", summaryHandler.StudentSummaries)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
