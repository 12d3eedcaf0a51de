package semantic

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
	"github.com/kailas-cloud/faqdex/internal/logger"
)

// Config bounds the vector tier.
type Config struct {
	Dimensions    int
	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
}

// Searcher is the vector similarity tier. It never returns an error:
// any embedding or index failure becomes a failed ranking.
type Searcher struct {
	embed Embedder
	index Index
	cfg   Config
}

// New creates a vector searcher.
func New(embed Embedder, index Index, cfg Config) *Searcher {
	return &Searcher{embed: embed, index: index, cfg: cfg}
}

// Search embeds the query and returns the k nearest FAQ entries with confidences in [0, 1].
func (s *Searcher) Search(ctx context.Context, query string, k int) match.Ranking {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return s.fail(ctx, "embed", err)
	}

	hits, err := s.searchIndex(ctx, vec, k)
	if err != nil {
		return s.fail(ctx, "search", err)
	}

	ms := make([]match.Match, len(hits))
	for i, h := range hits {
		ms[i] = match.New(h.ID(), h.Score())
	}
	return match.Ranked(ms)
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if s.cfg.Dimensions > 0 {
		if err := domain.CheckDimensions(res.Embedding, s.cfg.Dimensions); err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}
	return res.Embedding, nil
}

func (s *Searcher) searchIndex(ctx context.Context, vec []float32, k int) ([]match.Match, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	hits, err := s.index.SearchKNN(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return hits, nil
}

func (s *Searcher) fail(ctx context.Context, stage string, err error) match.Ranking {
	logger.FromContext(ctx).Warn("vector tier unavailable",
		zap.String("stage", stage),
		zap.Error(err),
	)
	return match.Failed(fmt.Errorf("%w: %w", domain.ErrDependencyUnavailable, err))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
