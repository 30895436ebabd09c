// Command server starts the resume matcher HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/embedding"
	httpserver "github.com/fairyhunter13/resume-matcher/internal/adapter/httpserver"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/storage"
	tikaext "github.com/fairyhunter13/resume-matcher/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/resume-matcher/internal/app"
	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: DB pool and schema
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, cfg.EmbeddingDim); err != nil {
		slog.Error("db migrate failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	resumeRepo := postgres.NewResumeRepo(pool)
	jdRepo := postgres.NewJobDescriptionRepo(pool)

	// Raw upload storage
	files, err := storage.New(cfg.UploadDir)
	if err != nil {
		slog.Error("upload dir init failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Queue client (Redpanda producer)
	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	// Embedding backend
	embedder := embedding.New(cfg.EmbeddingsURL, cfg.EmbeddingsAPIKey, cfg.EmbeddingsModel, cfg.EmbeddingDim,
		cfg.EmbedBackoffMaxElapsedTime, cfg.EmbedBackoffInitialInterval, cfg.EmbedBackoffMaxInterval)

	// External text extractor (Apache Tika), used here only for readiness
	ext := tikaext.New(cfg.TikaURL)

	// Redis, used here only for readiness
	var rdb *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		slog.Warn("invalid redis url, readiness check disabled", slog.Any("error", err))
	} else {
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
	}

	// Usecases
	resumeSvc := usecase.NewResumeService(resumeRepo, files, producer)
	jdSvc := usecase.NewJobDescriptionService(jdRepo, embedder)
	matchSvc := usecase.NewMatchService(jdRepo, resumeRepo)

	dbCheck, redisCheck, tikaCheck := app.BuildReadinessChecks(pool, rdb, ext)

	srv := httpserver.NewServer(cfg, resumeSvc, jdSvc, matchSvc, dbCheck, redisCheck, tikaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
