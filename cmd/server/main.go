package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/app"
	"github.com/RIDLEYsan/studio-classification-app/internal/cache"
	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/handlers"
	"github.com/RIDLEYsan/studio-classification-app/internal/jobs"
	_ "github.com/RIDLEYsan/studio-classification-app/internal/llm/gemini"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/report"
	"github.com/RIDLEYsan/studio-classification-app/internal/routers"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

// upload bodies carry base64, roughly 4/3 of the raw image bytes
func maxBodyBytes(cfg *config.Config) int64 {
	return cfg.MaxImageBytes*models.MaxUploadImages*4/3 + 64<<10
}

type resultStore interface {
	handlers.ResultStore
	Close()
}

// newResultStore keeps results in redis when REDIS_ADDR is set, in memory otherwise
func newResultStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (resultStore, error) {
	if cfg.RedisAddr == "" {
		return cache.NewResultCache(cfg.ResultCacheTTL), nil
	}
	rc, err := cache.NewRedisResultCache(ctx, cfg.RedisAddr, cfg.ResultCacheTTL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Result cache backed by redis", zap.String("addr", cfg.RedisAddr))
	return rc, nil
}

// newRouter builds the HTTP surface from already wired components
func newRouter(a *app.App, results handlers.ResultStore, batchJob *jobs.BatchJob) *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	router.Use(middleware.RequestID, middleware.RealIP, a.Metrics.Middleware, middleware.Recoverer, middleware.Timeout(a.Config.RequestTimeout+15*time.Second))

	var historyReader handlers.HistoryReader
	var historyPinger handlers.Pinger
	if a.History != nil {
		historyReader = a.History
		historyPinger = a.History
	}
	var lastRun handlers.LastRunReporter
	if batchJob != nil {
		lastRun = batchJob
	}

	healthHandler := handlers.NewHealthHandler(a.Classifier, a.Prompts, a.Config, historyPinger)
	routers.HealthRoutes(router, healthHandler, a.Metrics.Handler())
	routers.APIRoutes(router, routers.APIHandlers{
		Classify: handlers.NewClassifyHandler(a.Runner, a.Classifier.GetProviderName(), results, a.Config.MaxImageBytes, a.Logger),
		Catalog:  handlers.NewCatalogHandler(a.Taxonomy, a.Examples),
		History:  handlers.NewHistoryHandler(historyReader, a.Logger),
		Batch:    handlers.NewBatchHandler(lastRun),
	}, routers.APIOptions{
		MaxBodyBytes: maxBodyBytes(a.Config),
		JWTSecret:    a.Config.JWTSecret,
	})

	return router
}

// newBatchJob returns nil when BATCH_SCHEDULE is empty
func newBatchJob(a *app.App) (*jobs.BatchJob, error) {
	if a.Config.BatchSchedule == "" {
		return nil, nil
	}
	writer, err := report.NewWriter(a.Config.OutputDir, a.Config.ReportFormats, a.Logger)
	if err != nil {
		return nil, err
	}
	job := jobs.NewBatchJob(a.Runner, writer, &jobs.BatchJobConfig{
		Schedule:    a.Config.BatchSchedule,
		Root:        a.Config.PhotosDir,
		Concurrency: a.Config.Concurrency,
	}, a.Logger)
	if err := job.Start(); err != nil {
		return nil, err
	}
	return job, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded", zap.String("provider", cfg.Provider), zap.String("model", cfg.GeminiModel))

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	defer a.Close()

	results, err := newResultStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize result cache", zap.Error(err))
	}
	defer results.Close()

	batchJob, err := newBatchJob(a)
	if err != nil {
		logger.Fatal("Failed to start scheduled batch", zap.Error(err))
	}

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      newRouter(a, results, batchJob),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Classification service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Classification service shutting down...")

	if batchJob != nil {
		batchJob.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Classification service exited")
}
