package faqdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/domain"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/outcome"
	"github.com/kailas-cloud/faqdex/internal/repository/seedfile"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	"github.com/kailas-cloud/faqdex/internal/usecase/ingest"
)

// Internal interfaces for substitution in tests.
type retrievalUseCase interface {
	Search(ctx context.Context, query string, maxResults int) outcome.Outcome
}

type corpusUseCase interface {
	Get(id string) (domfaq.Entry, error)
	Load(ctx context.Context) (*domfaq.Snapshot, error)
}

type ingestUseCase interface {
	Sync(ctx context.Context, entries []domfaq.Entry, opts ingest.Options) (ingest.Report, error)
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the faqdex SDK entry point. Safe for concurrent use.
type Client struct {
	app       *app.App
	retrieval retrievalUseCase
	corpus    corpusUseCase
	ingest    ingestUseCase
	healthSvc healthUseCase
	obs       *observer
	stop      context.CancelFunc
}

// New creates a Client, connects to the store and loads the stored corpus.
// The provided context is used for the readiness check and the first load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg := cc.toConfig()
	if err := cfg.ValidateEngine(); err != nil {
		return nil, fmt.Errorf("faqdex: invalid options: %w", err)
	}

	var appOpts []app.Option
	switch {
	case cc.embedder != nil:
		appOpts = append(appOpts, app.WithEmbedder(adaptEmbedder(cc.embedder)))
	case cc.openAIKey != "":
	default:
		return nil, fmt.Errorf("faqdex: %w: embedder required (use WithEmbedder or WithOpenAI)", domain.ErrConfiguration)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, zap.NewNop(), appOpts...)
	if err != nil {
		return nil, fmt.Errorf("faqdex: %w", err)
	}

	if err := a.ProbeDimensions(ctx); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			a.Close()
			return nil, fmt.Errorf("faqdex: %w", err)
		}
		obs.warn("embedding provider unavailable, vector tier disabled until it recovers", err)
	}

	if _, err := a.Corpus.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			a.Close()
			return nil, fmt.Errorf("faqdex: %w", err)
		}
		obs.warn("initial corpus load failed", err)
	}

	c := &Client{
		app:       a,
		retrieval: a.Retrieval,
		corpus:    a.Corpus,
		ingest:    a.Ingest,
		healthSvc: a.Health,
		obs:       obs,
		stop:      func() {},
	}

	if cc.refreshInterval > 0 {
		runCtx, cancel := context.WithCancel(context.Background())
		c.stop = cancel
		go a.Corpus.Run(runCtx, cc.refreshInterval)
	}

	return c, nil
}

// Close stops background reloads and releases all resources.
func (c *Client) Close() {
	c.stop()
	if c.app != nil {
		c.app.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.app.Store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search answers a query through the cascade. It never fails: backend
// errors degrade to the next tier and an unanswerable query yields TierNone.
// maxResults <= 0 uses the configured default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) Outcome {
	start := time.Now()
	out := outcomeFromDomain(c.retrieval.Search(ctx, query, maxResults))
	c.obs.observeSearch(start, out)
	return out
}

// Get returns a FAQ from the loaded corpus.
func (c *Client) Get(id string) (FAQ, error) {
	e, err := c.corpus.Get(id)
	if err != nil {
		return FAQ{}, fmt.Errorf("get faq: %w", err)
	}
	return faqFromDomain(e), nil
}

// Reload rebuilds the corpus from the store and returns the number of FAQs.
func (c *Client) Reload(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	snap, err := c.corpus.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("reload: %w", err)
	}
	return snap.Len(), nil
}

// Sync embeds and stores faqs, then reloads the corpus. Invalid FAQs are
// reported in SyncReport.Failed; the error is set only when the sync could not run.
func (c *Client) Sync(ctx context.Context, faqs []FAQ, opts SyncOptions) (report SyncReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync", start, err) }()

	entries := make([]domfaq.Entry, 0, len(faqs))
	var invalid []SyncError
	for _, f := range faqs {
		id := f.ID
		if id == "" {
			id = seedfile.DeriveID(f.Question)
		}
		e, verr := domfaq.New(id, f.Question, f.Answer, f.Tags)
		if verr != nil {
			invalid = append(invalid, SyncError{ID: id, Err: verr})
			continue
		}
		entries = append(entries, e)
	}
	if len(invalid) > 0 && opts.Prune {
		return SyncReport{Failed: invalid}, fmt.Errorf(
			"sync: %w: refusing to prune with %d invalid FAQs", domain.ErrInvalidEntry, len(invalid),
		)
	}

	report, err = c.sync(ctx, entries, opts)
	report.Failed = append(invalid, report.Failed...)
	return report, err
}

// SyncFile reads a JSON seed file and syncs it like Sync.
func (c *Client) SyncFile(ctx context.Context, path string, opts SyncOptions) (report SyncReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync_file", start, err) }()

	entries, err := seedfile.New(path).List(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync file: %w", err)
	}
	return c.sync(ctx, entries, opts)
}

func (c *Client) sync(ctx context.Context, entries []domfaq.Entry, opts SyncOptions) (SyncReport, error) {
	r, err := c.ingest.Sync(ctx, entries, ingest.Options{
		Force:  opts.Force,
		DryRun: opts.DryRun,
		Prune:  opts.Prune,
	})
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync: %w", err)
	}
	report := reportFromDomain(r)

	if !opts.DryRun {
		if _, err := c.corpus.Load(ctx); err != nil {
			return report, fmt.Errorf("reload after sync: %w", err)
		}
	}
	return report, nil
}

func outcomeFromDomain(o outcome.Outcome) Outcome {
	out := Outcome{
		Tier:       Tier(o.Tier()),
		SourceTier: Tier(o.SourceTier()),
		BestScore:  o.BestScore(),
		Reason:     o.Reason(),
		Hits:       make([]Hit, len(o.Hits())),
	}
	for i, h := range o.Hits() {
		out.Hits[i] = Hit{FAQ: faqFromDomain(h.Entry()), Score: h.Score()}
	}
	return out
}

func faqFromDomain(e domfaq.Entry) FAQ {
	return FAQ{ID: e.ID(), Question: e.Question(), Answer: e.Answer(), Tags: e.Tags()}
}

func reportFromDomain(r ingest.Report) SyncReport {
	out := SyncReport{DryRun: r.DryRun}
	for _, res := range r.Results {
		switch res.Status() {
		case dombatch.StatusUpserted:
			out.Upserted = append(out.Upserted, res.ID())
		case dombatch.StatusUnchanged:
			out.Unchanged = append(out.Unchanged, res.ID())
		case dombatch.StatusPruned:
			out.Deleted = append(out.Deleted, res.ID())
		case dombatch.StatusFailed:
			out.Failed = append(out.Failed, SyncError{ID: res.ID(), Err: res.Err()})
		}
	}
	return out
}
