// Package app assembles the faqdex object graph from configuration.
// Binaries and the public client share it so every entry point wires
// the same decorator chain and cascade.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/config"
	"github.com/kailas-cloud/faqdex/internal/db"
	dbLocal "github.com/kailas-cloud/faqdex/internal/db/local"
	dbRedis "github.com/kailas-cloud/faqdex/internal/db/redis"
	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/metrics"
	"github.com/kailas-cloud/faqdex/internal/repository/embcache"
	faqrepo "github.com/kailas-cloud/faqdex/internal/repository/faq"
	"github.com/kailas-cloud/faqdex/internal/repository/seedfile"
	openaiEmb "github.com/kailas-cloud/faqdex/internal/transport/openai"
	corpusuc "github.com/kailas-cloud/faqdex/internal/usecase/corpus"
	embeddinguc "github.com/kailas-cloud/faqdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	"github.com/kailas-cloud/faqdex/internal/usecase/ingest"
	"github.com/kailas-cloud/faqdex/internal/usecase/lexical"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/faqdex/internal/usecase/semantic"
)

// probeText is embedded once at startup to verify the provider's dimensionality.
const probeText = "dimension probe"

// Option overrides a component the config would otherwise build.
type Option func(*options)

type options struct {
	store      db.Store
	embedder   domain.Embedder
	noFallback bool
}

// WithStore uses an already opened store. App.Close does not close it.
func WithStore(s db.Store) Option {
	return func(o *options) { o.store = s }
}

// WithoutStoreFallback fails instead of falling back to a local store when
// the configured database is unreachable, whatever database.fallback_local says.
func WithoutStoreFallback() Option {
	return func(o *options) { o.noFallback = true }
}

// WithEmbedder replaces the OpenAI-compatible provider. The cache,
// instrumentation and query instruction decorators still apply.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// App is the assembled service graph.
type App struct {
	Store     db.Store
	Repo      *faqrepo.Repo
	Corpus    *corpusuc.Service
	Retrieval *retrieval.Service
	Ingest    *ingest.Service
	Health    *healthuc.Service

	// QueryEmbedder carries the query instruction; DocEmbedder embeds FAQ text as is.
	QueryEmbedder domain.Embedder
	DocEmbedder   domain.Embedder

	// StoreFallback is set when the configured database was unreachable
	// and a local store serves instead.
	StoreFallback bool

	cfg       config.Config
	logger    *zap.Logger
	ownsStore bool
}

// New opens the store and wires repositories, embedders and use cases.
// It does not load the corpus; call Corpus.Load when ready.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if o.store != nil {
		if err := o.store.WaitForReady(ctx, timeout); err != nil {
			return nil, fmt.Errorf("%w: database not ready: %w", domain.ErrDependencyUnavailable, err)
		}
		a.Store = o.store
	} else {
		s, fellBack, err := openReadyStore(ctx, cfg.Database, timeout, !o.noFallback, logger)
		if err != nil {
			return nil, err
		}
		a.Store, a.StoreFallback, a.ownsStore = s, fellBack, true
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	base := o.embedder
	if base == nil {
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   providerName(cfg),
			Logger:     logger,
		})
	}
	a.DocEmbedder, a.QueryEmbedder = buildEmbedders(base, a.Store, cfg, logger)

	a.Repo = faqrepo.New(a.Store, faqrepo.Config{
		KeyPrefix:  cfg.Storage.KeyPrefix,
		IndexName:  cfg.Index.Name,
		Dimensions: cfg.Embedding.Dimensions,
		HNSW: faqrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})

	a.Corpus = corpusuc.New(a.Repo, cfg.Embedding.Dimensions)

	th, err := cfg.Retrieval.Thresholds()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("retrieval thresholds: %w", err)
	}

	vector := semantic.New(a.QueryEmbedder, a.Repo, semantic.Config{
		Dimensions:    cfg.Embedding.Dimensions,
		EmbedTimeout:  time.Duration(cfg.Embedding.TimeoutMs) * time.Millisecond,
		SearchTimeout: time.Duration(cfg.Index.TimeoutMs) * time.Millisecond,
	})
	lex := lexical.New(a.Corpus, lexical.Config{
		N:            cfg.Lexical.NgramSize,
		Mode:         lexical.Mode(cfg.Lexical.Mode),
		AnswerWeight: *cfg.Lexical.AnswerWeight,
	})
	a.Retrieval = retrieval.New(vector, lex, a.Corpus, retrieval.Config{
		Thresholds:     th,
		TopK:           cfg.Retrieval.TopK,
		DefaultResults: cfg.Retrieval.DefaultResults,
		MaxResults:     cfg.Retrieval.MaxResults,
	})

	a.Ingest, err = ingest.New(a.Repo, a.DocEmbedder, ingest.Config{
		BatchSize:  cfg.Sync.BatchSize,
		Workers:    cfg.Sync.Workers,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create ingest service: %w", err)
	}

	a.Health = healthuc.New(a.Store, newEmbeddingHealthChecker(base), a.Corpus,
		healthuc.WithProbeTimeout(time.Duration(cfg.Embedding.TimeoutMs)*time.Millisecond))

	return a, nil
}

// openReadyStore opens the configured store and waits for it. When a remote
// driver cannot be reached and fallback is allowed by both the caller and
// database.fallback_local, it opens the local driver instead.
func openReadyStore(
	ctx context.Context,
	cfg config.DatabaseConfig,
	timeout time.Duration,
	allowFallback bool,
	logger *zap.Logger,
) (db.Store, bool, error) {
	store, err := OpenStore(cfg, logger)
	if err == nil {
		if err = store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			err = fmt.Errorf("%w: database not ready: %w", domain.ErrDependencyUnavailable, err)
		}
	}
	if err == nil {
		return store, false, nil
	}

	remote := cfg.Driver == config.DriverValkey || cfg.Driver == config.DriverRedis
	if !remote || !allowFallback || !cfg.FallbackLocal || errors.Is(err, domain.ErrConfiguration) {
		return nil, false, err
	}

	logger.Warn("Database unavailable, falling back to local store",
		zap.String("driver", cfg.Driver),
		zap.Strings("addrs", cfg.Addrs),
		zap.String("local_path", cfg.LocalPath),
		zap.Error(err),
	)
	local := cfg
	local.Driver = config.DriverLocal
	fb, ferr := OpenStore(local, logger)
	if ferr != nil {
		return nil, false, fmt.Errorf("local fallback after %w: %w", err, ferr)
	}
	if ferr = fb.WaitForReady(ctx, timeout); ferr != nil {
		fb.Close()
		return nil, false, fmt.Errorf("%w: local fallback not ready: %w", domain.ErrDependencyUnavailable, ferr)
	}
	return fb, true, nil
}

// OpenStore connects to the configured database driver.
func OpenStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			Logger:   logger,
		})
	case config.DriverLocal:
		store, err = dbLocal.Open(dbLocal.Config{
			Path:     cfg.LocalPath,
			InMemory: cfg.LocalPath == "",
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", domain.ErrConfiguration, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s store: %w", domain.ErrDependencyUnavailable, cfg.Driver, err)
	}
	return store, nil
}

// ProbeDimensions embeds a fixed text and fails with domain.ErrConfiguration
// when the provider returns vectors of another size. An unreachable provider
// is returned as is: the cascade can still answer lexically.
func (a *App) ProbeDimensions(ctx context.Context) error {
	_, err := a.DocEmbedder.Embed(ctx, probeText)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrVectorDimMismatch) {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return err
}

// SyncSeedFile upserts the entries of a seed file into the store.
func (a *App) SyncSeedFile(ctx context.Context, path string, opts ingest.Options) (ingest.Report, error) {
	entries, err := seedfile.New(path).List(ctx)
	if err != nil {
		return ingest.Report{}, fmt.Errorf("read seed file: %w", err)
	}
	report, err := a.Ingest.Sync(ctx, entries, opts)
	if err != nil {
		return report, fmt.Errorf("sync seed file: %w", err)
	}
	return report, nil
}

// Close releases the worker pool and, when owned, the store.
func (a *App) Close() {
	if a.Ingest != nil {
		a.Ingest.Close()
	}
	if a.ownsStore && a.Store != nil {
		a.Store.Close()
	}
}

// buildEmbedders assembles the decorator chain: provider -> cached -> instrumented -> instruction.
// The instruction is outermost so the cache key includes it.
func buildEmbedders(
	base domain.Embedder,
	store db.Store,
	cfg config.Config,
	logger *zap.Logger,
) (doc, query domain.Embedder) {
	var embedder domain.Embedder = embcache.New(base, store, embcache.Config{
		KeyPrefix: cfg.Storage.KeyPrefix,
		Model:     cfg.Embedding.Model,
		TTL:       time.Duration(cfg.Embedding.CacheTTLSec) * time.Second,
	}, metrics.EmbeddingCacheTotal, logger)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Config{
		Provider:      providerName(cfg),
		Model:         cfg.Embedding.Model,
		Dimensions:    cfg.Embedding.Dimensions,
		MaxBatch:      cfg.Embedding.MaxBatch,
		SlowThreshold: time.Duration(cfg.Embedding.TimeoutMs) * time.Millisecond / 2,
	}, logger)

	if cfg.Embedding.QueryInstruction != "" {
		return embedder, domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}
	return embedder, embedder
}

func providerName(cfg config.Config) string {
	if cfg.Embedding.BaseURL == "" {
		return "openai"
	}
	return "openai-compatible"
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
