package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"stratalpha/internal/cache"
	"stratalpha/internal/config"
	"stratalpha/internal/database"
	"stratalpha/internal/handlers"
	"stratalpha/internal/logger"
	"stratalpha/internal/marketdata"
	"stratalpha/internal/middleware"
	"stratalpha/internal/services"
	"stratalpha/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	historyService := services.NewHistoryService(db)

	resultCache := cache.New(appConfig.RedisURL)
	quoteClient := marketdata.NewClient(
		marketdata.WithBaseURL(appConfig.QuoteBaseURL),
		marketdata.WithHTTPClient(&http.Client{Timeout: appConfig.QuoteTimeout}),
		marketdata.WithRateLimit(appConfig.QuoteRateLimit),
		marketdata.WithRecorder(historyService),
	)
	analysisService := services.NewAnalysisService(appConfig, quoteClient, resultCache, historyService)

	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	reportHandler := handlers.NewReportHandler(historyService)
	macroHandler := handlers.NewMacroHandler(appConfig.MacroSamplePath)
	healthHandler := handlers.NewHealthHandler(dbManager, resultCache, historyService)

	validator.Register()

	// Initialize Gin router
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/health", healthHandler.GetHealth)

	v1 := router.Group("/api/v1")
	v1.POST("/valuation", analysisHandler.RunValuation)
	v1.POST("/risk", analysisHandler.RunRisk)
	v1.POST("/supply", analysisHandler.RunSupply)
	v1.GET("/history/:ticker", historyHandler.GetHistory)
	v1.GET("/report/:ticker", reportHandler.GetReport)
	v1.GET("/macro", macroHandler.GetMacro)

	log.Infow("starting server", "port", appConfig.Port, "env", appConfig.Env)
	return router.Run(":" + appConfig.Port)
}
