package ingest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/logger"
)

// Defaults for Config zero values.
const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4
)

// Config controls embedding throughput.
type Config struct {
	BatchSize  int
	Workers    int
	Dimensions int
}

// Options select sync behavior.
type Options struct {
	Force  bool // re-embed entries whose text is unchanged
	DryRun bool // plan only, touch nothing
	Prune  bool // delete stored entries absent from the input
}

// Report lists one result per input entry, followed by pruned ids.
type Report struct {
	Results []dombatch.Result
	DryRun  bool
}

// Count returns the number of results with the given status.
func (r Report) Count(s dombatch.ItemStatus) int { return dombatch.Summarize(r.Results).Count(s) }

// Err joins every per-item error, nil when all items succeeded.
func (r Report) Err() error { return dombatch.Join(r.Results) }

// Service embeds FAQ entries and writes them to the vector store.
type Service struct {
	store Store
	embed domain.Embedder
	pool  *ants.Pool
	cfg   Config
}

// New creates a sync service with its own worker pool. Call Close to release it.
func New(store Store, embed domain.Embedder, cfg Config) (*Service, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrConfiguration)
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Service{store: store, embed: embed, pool: pool, cfg: cfg}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

type plan struct {
	embed  []int         // indexes into entries needing new vectors
	reuse  []domfaq.Entry // tag-only changes keeping the stored vector
	reuseI []int
	prune  []string
}

// Sync makes the store match entries. A returned error means the sync could not
// start; per-entry failures are reported in Report.
func (s *Service) Sync(ctx context.Context, entries []domfaq.Entry, opts Options) (Report, error) {
	log := logger.FromContext(ctx)

	if !opts.DryRun {
		if err := s.store.EnsureIndex(ctx); err != nil {
			return Report{}, fmt.Errorf("ensure index: %w", err)
		}
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list stored faqs: %w", err)
	}

	results := make([]dombatch.Result, len(entries))
	p := s.plan(entries, stored, opts, results)

	report := Report{DryRun: opts.DryRun}
	if opts.DryRun {
		for _, i := range p.embed {
			results[i] = dombatch.Upserted(entries[i].ID())
		}
		for _, i := range p.reuseI {
			results[i] = dombatch.Upserted(entries[i].ID())
		}
		report.Results = results
		for _, id := range p.prune {
			report.Results = append(report.Results, dombatch.Pruned(id))
		}
		return report, nil
	}

	if len(p.reuse) > 0 {
		err := s.store.Upsert(ctx, p.reuse)
		for _, i := range p.reuseI {
			if err != nil {
				results[i] = dombatch.Failed(entries[i].ID(), err)
			} else {
				results[i] = dombatch.Upserted(entries[i].ID())
			}
		}
	}

	s.embedAll(ctx, entries, p.embed, results)
	report.Results = results

	for _, id := range p.prune {
		if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			report.Results = append(report.Results, dombatch.Failed(id, fmt.Errorf("prune: %w", err)))
			continue
		}
		report.Results = append(report.Results, dombatch.Pruned(id))
	}

	log.Info("FAQ sync completed",
		zap.Int("entries", len(entries)),
		zap.Int("upserted", report.Count(dombatch.StatusUpserted)),
		zap.Int("skipped", report.Count(dombatch.StatusUnchanged)),
		zap.Int("deleted", report.Count(dombatch.StatusPruned)),
		zap.Int("failed", report.Count(dombatch.StatusFailed)),
	)
	return report, nil
}

// plan classifies entries. Results for skipped and duplicate entries are filled in directly.
func (s *Service) plan(entries, stored []domfaq.Entry, opts Options, results []dombatch.Result) plan {
	byID := make(map[string]domfaq.Entry, len(stored))
	for _, e := range stored {
		byID[e.ID()] = e
	}

	var p plan
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if seen[e.ID()] {
			results[i] = dombatch.Failed(e.ID(), fmt.Errorf("%w: duplicate id", domain.ErrInvalidEntry))
			continue
		}
		seen[e.ID()] = true

		old, ok := byID[e.ID()]
		sameText := ok && old.ContentHash() == e.ContentHash() &&
			domain.CheckDimensions(old.Vector(), s.cfg.Dimensions) == nil
		switch {
		case opts.Force || !sameText:
			p.embed = append(p.embed, i)
		case !maps.Equal(old.Tags(), e.Tags()):
			p.reuse = append(p.reuse, e.WithVector(old.Vector()))
			p.reuseI = append(p.reuseI, i)
		default:
			results[i] = dombatch.Unchanged(e.ID())
		}
	}

	if opts.Prune {
		for _, e := range stored {
			if !seen[e.ID()] {
				p.prune = append(p.prune, e.ID())
			}
		}
	}
	return p
}

// embedAll embeds and upserts entries[idx] in chunks on the worker pool.
func (s *Service) embedAll(ctx context.Context, entries []domfaq.Entry, idx []int, results []dombatch.Result) {
	var wg sync.WaitGroup
	for start := 0; start < len(idx); start += s.cfg.BatchSize {
		chunk := idx[start:min(start+s.cfg.BatchSize, len(idx))]

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			s.embedChunk(ctx, entries, chunk, results)
		})
		if err != nil {
			wg.Done()
			for _, i := range chunk {
				results[i] = dombatch.Failed(entries[i].ID(), fmt.Errorf("submit: %w", err))
			}
		}
	}
	wg.Wait()
}

// embedChunk writes only results[i] for i in chunk, so chunks never share a slot.
func (s *Service) embedChunk(ctx context.Context, entries []domfaq.Entry, chunk []int, results []dombatch.Result) {
	fail := func(err error) {
		for _, i := range chunk {
			results[i] = dombatch.Failed(entries[i].ID(), err)
		}
	}

	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	texts := make([]string, len(chunk))
	for j, i := range chunk {
		texts[j] = entries[i].EmbeddingText()
	}

	res, err := s.batchEmbed(ctx, texts)
	if err != nil {
		fail(err)
		return
	}
	if len(res.Embeddings) != len(chunk) {
		fail(fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(chunk)))
		return
	}

	ready := make([]domfaq.Entry, 0, len(chunk))
	readyI := make([]int, 0, len(chunk))
	for j, i := range chunk {
		if err := domain.CheckDimensions(res.Embeddings[j], s.cfg.Dimensions); err != nil {
			results[i] = dombatch.Failed(entries[i].ID(), err)
			continue
		}
		ready = append(ready, entries[i].WithVector(res.Embeddings[j]))
		readyI = append(readyI, i)
	}
	if len(ready) == 0 {
		return
	}

	if err := s.store.Upsert(ctx, ready); err != nil {
		for _, i := range readyI {
			results[i] = dombatch.Failed(entries[i].ID(), fmt.Errorf("upsert: %w", err))
		}
		return
	}
	for _, i := range readyI {
		results[i] = dombatch.Upserted(entries[i].ID())
	}
}

func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return res, nil
	}
	res, err := domain.BatchFallback(ctx, s.embed, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return res, nil
}
