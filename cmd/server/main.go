package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/reslib/paper-metadata-api/internal/agent"
	"github.com/reslib/paper-metadata-api/internal/config"
	"github.com/reslib/paper-metadata-api/internal/db"
	"github.com/reslib/paper-metadata-api/internal/extractor"
	"github.com/reslib/paper-metadata-api/internal/jobs"
	"github.com/reslib/paper-metadata-api/internal/repository"
	"github.com/reslib/paper-metadata-api/internal/resolver"
	"github.com/reslib/paper-metadata-api/internal/router"
	"github.com/reslib/paper-metadata-api/internal/services"
	"github.com/reslib/paper-metadata-api/internal/storage"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", "error", err)
	}

	agentClient := agent.NewClient(agent.Config{
		BaseURL:     cfg.AgentBaseURL,
		APIKey:      cfg.AgentAPIKey,
		Model:       cfg.AgentModel,
		Temperature: cfg.AgentTemperature,
		Timeout:     cfg.AgentTimeout,
	}, logger)

	metadataResolver := resolver.NewResolver(agentClient, resolver.Policy{
		MaxRetries:   cfg.AgentMaxRetries,
		RetryDelay:   cfg.AgentRetryDelay,
		ExcerptLimit: cfg.ExcerptLimit,
	}, logger)

	pdfExtractor := extractor.NewExtractor(cfg.KeepArtifacts, logger)

	paperRepo := repository.NewPaperRepository(database, logger)
	paperService := services.NewService(paperRepo, s3Storage, pdfExtractor, metadataResolver, cfg.UploadDir, logger)

	pool := jobs.NewPool(cfg.Workers, cfg.QueueSize, paperService.ProcessPaper, logger)

	handler := router.NewRouter(paperService, pool, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	// Let in-flight pipeline runs finish before closing the database.
	pool.Shutdown(ctx)

	logger.Info("Server exited")
}
