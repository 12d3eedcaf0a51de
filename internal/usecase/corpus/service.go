package corpus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// Service owns the in-memory FAQ corpus snapshot.
// Readers never block: reloads build a new snapshot and swap it atomically.
type Service struct {
	source     Source
	dimensions int

	current atomic.Pointer[faq.Snapshot]
	version atomic.Uint64
	mu      sync.Mutex // serializes reloads
}

// New creates a corpus service. dimensions is the configured embedding size;
// stored vectors of any other size make Load fail with domain.ErrConfiguration.
func New(source Source, dimensions int) *Service {
	s := &Service{source: source, dimensions: dimensions}
	s.current.Store(faq.NewSnapshot(0, nil))
	return s
}

// Snapshot returns the current corpus snapshot. Never nil.
func (s *Service) Snapshot() *faq.Snapshot {
	return s.current.Load()
}

// Get returns a single entry from the current snapshot.
func (s *Service) Get(id string) (faq.Entry, error) {
	e, ok := s.Snapshot().Get(id)
	if !ok {
		return faq.Entry{}, fmt.Errorf("faq %q: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// Load reads all entries from the source and replaces the snapshot.
// The previous snapshot stays active when the source fails.
func (s *Service) Load(ctx context.Context) (*faq.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}

	for _, e := range entries {
		if e.Vector() == nil || s.dimensions <= 0 {
			continue
		}
		if err := domain.CheckDimensions(e.Vector(), s.dimensions); err != nil {
			return nil, fmt.Errorf("%w: stored vector for faq %q: %w", domain.ErrConfiguration, e.ID(), err)
		}
	}

	snap := faq.NewSnapshot(s.version.Add(1), entries)
	s.current.Store(snap)
	metrics.CorpusEntries.Set(float64(snap.Len()))

	logger.FromContext(ctx).Info("corpus loaded",
		zap.Uint64("version", snap.Version()),
		zap.Int("entries", snap.Len()),
	)
	return snap, nil
}

// Run reloads the corpus every interval until ctx is canceled.
// Reload failures are logged and the previous snapshot is kept.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Load(ctx); err != nil {
				logger.FromContext(ctx).Warn("corpus reload failed", zap.Error(err))
			}
		}
	}
}
