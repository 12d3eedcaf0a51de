package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	"github.com/kailas-cloud/faqdex/internal/domain"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	chiTransport "github.com/kailas-cloud/faqdex/internal/transport/chi"
	"github.com/kailas-cloud/faqdex/internal/usecase/ingest"
	"github.com/kailas-cloud/faqdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, logpkg.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "faqdex",
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting faqdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.NewContext(ctx, logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to assemble services", zap.Error(err))
	}
	defer a.Close()
	if a.StoreFallback {
		logger.Warn("Serving from the local fallback store", zap.String("local_path", cfg.Database.LocalPath))
	} else {
		logger.Info("Connected to database")
	}

	if err := a.ProbeDimensions(ctx); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			logger.Fatal("Embedding provider dimension mismatch", zap.Error(err))
		}
		// Provider down: serve lexical answers until it recovers.
		logger.Warn("Embedding provider unavailable at startup", zap.Error(err))
	}
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	if cfg.Corpus.SeedFile != "" {
		syncSeed(ctx, a, cfg.Corpus.SeedFile, logger)
	}

	if _, err := a.Corpus.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			logger.Fatal("Stored corpus does not match configuration", zap.Error(err))
		}
		logger.Warn("Initial corpus load failed, serving empty corpus", zap.Error(err))
	}
	go a.Corpus.Run(ctx, time.Duration(cfg.Corpus.RefreshIntervalSec)*time.Second)

	server := chiTransport.NewServer(a.Retrieval, a.Corpus, a.Health, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// syncSeed upserts the seed file before the first corpus load. Failures are
// logged and the server starts with whatever the store already holds.
func syncSeed(ctx context.Context, a *app.App, path string, logger *zap.Logger) {
	report, err := a.SyncSeedFile(ctx, path, ingest.Options{})
	if err != nil {
		logger.Error("Seed sync failed", zap.String("file", path), zap.Error(err))
		return
	}
	if err := report.Err(); err != nil {
		logger.Warn("Seed sync finished with errors", zap.Error(err))
	}
	logger.Info("Seed sync finished",
		zap.String("file", path),
		zap.Int("upserted", report.Count(dombatch.StatusUpserted)),
		zap.Int("skipped", report.Count(dombatch.StatusUnchanged)),
		zap.Int("failed", report.Count(dombatch.StatusFailed)),
	)
}
