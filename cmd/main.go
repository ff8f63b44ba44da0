package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/remasto/remasto/server/adapters/llm"
	"github.com/remasto/remasto/server/adapters/memory"
	adaptermongo "github.com/remasto/remasto/server/adapters/mongo"
	"github.com/remasto/remasto/server/adapters/stt"
	"github.com/remasto/remasto/server/adapters/tts"
	"github.com/remasto/remasto/server/domain/repositories"
	"github.com/remasto/remasto/server/internal/api"
	"github.com/remasto/remasto/server/internal/auth"
	"github.com/remasto/remasto/server/internal/config"
	"github.com/remasto/remasto/server/internal/websocket"
	"github.com/remasto/remasto/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize adapters
	geminiClient, err := llm.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Fatal("failed to initialize Gemini client", zap.Error(err))
	}
	interviewer := llm.NewInterviewer(geminiClient, logger)
	reportGenerator := llm.NewReportGenerator(geminiClient, logger)
	resumeAnalyzer := llm.NewResumeAnalyzer(geminiClient, logger)
	transcriber := stt.NewGoogleTranscriber(cfg.STTLanguage, logger)
	synthesizer := tts.NewGeminiSynthesizer(geminiClient.Raw(), cfg.GeminiTTSModel, logger)

	// Storage: Mongo when configured, otherwise in-memory only
	var reportStore repositories.ReportRepository
	if cfg.MongoURI != "" {
		mongoClient, err := adaptermongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Close(shutdownCtx)
		}()
		reportStore = adaptermongo.NewReportRepository(mongoClient.Database)
	} else {
		logger.Warn("MONGO_URI not set, reports will not be persisted")
	}
	userRepo := memory.NewUserRepository()

	authManager, err := auth.NewManager(cfg.JWTSecret, 0)
	if err != nil {
		logger.Fatal("failed to initialize auth", zap.Error(err))
	}

	// Initialize usecase services
	reportService := usecase.NewReportService(reportGenerator, reportStore, logger)
	interviewService := usecase.NewInterviewService(interviewer, transcriber, synthesizer, reportService, logger)
	resumeService := usecase.NewResumeService(resumeAnalyzer, logger)

	// Initialize WebSocket hub
	hub := websocket.NewHub(interviewService, cfg.MaxRecordingBytes, logger)
	go hub.Run()

	// Create Echo instance
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, api.Deps{
		Hub:     hub,
		Users:   userRepo,
		Auth:    authManager,
		Reports: reportService,
		Resumes: resumeService,
		Logger:  logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
