package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadops/tuition-api/api/swagger"
	"github.com/acadops/tuition-api/internal/handler"
	"github.com/acadops/tuition-api/internal/middleware"
	"github.com/acadops/tuition-api/internal/repository"
	"github.com/acadops/tuition-api/internal/service"
	"github.com/acadops/tuition-api/pkg/cache"
	"github.com/acadops/tuition-api/pkg/config"
	"github.com/acadops/tuition-api/pkg/database"
	"github.com/acadops/tuition-api/pkg/logger"
	corsmiddleware "github.com/acadops/tuition-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadops/tuition-api/pkg/middleware/requestid"
)

// @title Tuition Planning API
// @version 0.1.0
// @description Session planning and tuition billing engine
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	classes := repository.NewClassRepository(db)
	closures := repository.NewClosureRepository(db)
	roster := repository.NewRosterRepository(db)
	ledger := repository.NewLedgerRepository(db)

	planner := service.NewPlannerService(classes, closures, roster, ledger, cacheRepo, metricsSvc, validate, logr, service.PlannerConfig{
		SessionTTL:      cfg.Planner.SessionTTL,
		ScanHorizonDays: cfg.Planner.ScanHorizonDays,
		CacheTTL:        cfg.Catalog.CacheTTL,
	})
	commits := service.NewCommitService(ledger, metricsSvc, logr)

	planHandler := handler.NewPlanHandler(planner, commits)
	catalogHandler := handler.NewCatalogHandler(planner)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.POST("/plans/regenerate", planHandler.Regenerate)
		api.GET("/plans/:id", planHandler.Get)
		api.POST("/plans/:id/toggle", planHandler.Toggle)
		api.POST("/plans/:id/commit", planHandler.Commit)
		api.GET("/students/:id/ledger", planHandler.Statement)
		api.GET("/classes/:id", catalogHandler.Get)
		api.DELETE("/classes/:id/cache", catalogHandler.InvalidateCache)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
