package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
	"github.com/kailas-cloud/faqdex/internal/domain/search/outcome"
	"github.com/kailas-cloud/faqdex/internal/domain/search/threshold"
	"github.com/kailas-cloud/faqdex/internal/domain/search/tier"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
	"github.com/kailas-cloud/faqdex/internal/usecase/lexical"
)

// Config holds cascade limits. Thresholds must come from threshold.New.
type Config struct {
	Thresholds     threshold.Thresholds
	TopK           int // candidates requested from each tier
	DefaultResults int // used when the caller passes maxResults <= 0
	MaxResults     int // hard cap on returned hits
}

// stage is one tier of the cascade with its acceptance bar.
type stage struct {
	tier      tier.Tier
	strategy  Strategy
	threshold float64
}

// Service is the retrieval orchestrator. It runs the vector tier, then the
// lexical tier, then relaxes to the emergency threshold, and only then
// reports no match. Safe for concurrent use.
type Service struct {
	stages    []stage
	corpus    CorpusReader
	emergency float64
	cfg       Config
}

// New creates the orchestrator over the vector and lexical strategies.
func New(vector, lexicalTier Strategy, corpus CorpusReader, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.DefaultResults <= 0 || cfg.DefaultResults > cfg.MaxResults {
		cfg.DefaultResults = min(3, cfg.MaxResults)
	}
	th := cfg.Thresholds
	return &Service{
		stages: []stage{
			{tier: tier.Vector, strategy: vector, threshold: th.Vector()},
			{tier: tier.Lexical, strategy: lexicalTier, threshold: th.Lexical()},
		},
		corpus:    corpus,
		emergency: th.Emergency(),
		cfg:       cfg,
	}
}

// Search answers a query. It never returns an error: dependency failures are
// tier misses and the outcome reports which tier answered, if any.
func (s *Service) Search(ctx context.Context, query string, maxResults int) outcome.Outcome {
	start := time.Now()
	out := s.search(ctx, query, s.limit(maxResults))

	metrics.RetrievalOutcomesTotal.WithLabelValues(out.Tier().String(), out.SourceTier().String()).Inc()
	metrics.RetrievalDuration.WithLabelValues(out.Tier().String()).Observe(time.Since(start).Seconds())

	logger.FromContext(ctx).Debug("retrieval outcome",
		zap.String("tier", out.Tier().String()),
		zap.String("source_tier", out.SourceTier().String()),
		zap.Float64("best_score", out.BestScore()),
		zap.Int("hits", len(out.Hits())),
		zap.String("reason", out.Reason()),
		zap.Duration("duration", time.Since(start)),
	)
	return out
}

func (s *Service) search(ctx context.Context, query string, n int) outcome.Outcome {
	if len(lexical.Normalize(query)) == 0 {
		return outcome.NoMatch(outcome.ReasonInvalidQuery, 0)
	}

	snap := s.corpus.Snapshot()
	if snap == nil || snap.Len() == 0 {
		return outcome.NoMatch(outcome.ReasonEmptyCorpus, 0)
	}

	log := logger.FromContext(ctx)
	attempts := make([]Attempt, 0, len(s.stages))

	for _, st := range s.stages {
		r := s.run(ctx, st, query)
		if r.Failed() {
			metrics.RetrievalTierFailuresTotal.WithLabelValues(st.tier.String(), FailureReason(r.Err())).Inc()
			log.Warn("tier unavailable, falling through",
				zap.String("tier", st.tier.String()),
				zap.Error(r.Err()),
			)
			continue
		}

		r = known(r, snap)
		metrics.RetrievalTopScore.WithLabelValues(st.tier.String()).Observe(r.TopScore())
		attempts = append(attempts, Attempt{Tier: st.tier, Ranking: r})

		if _, ok := r.Top(); ok && r.TopScore() >= st.threshold {
			return outcome.Matched(st.tier, hydrate(r, snap, n))
		}
		log.Debug("tier miss",
			zap.String("tier", st.tier.String()),
			zap.Float64("top_score", r.TopScore()),
			zap.Float64("threshold", st.threshold),
		)
	}

	if best, ok := Relax(attempts, s.emergency); ok {
		return outcome.Relaxed(best.Tier, hydrate(best.Ranking, snap, n))
	}

	return outcome.NoMatch(outcome.ReasonBelowThreshold, bestScore(attempts))
}

// run calls a strategy, converting a panic into a failed ranking.
func (s *Service) run(ctx context.Context, st stage, query string) (r match.Ranking) {
	defer func() {
		if p := recover(); p != nil {
			r = match.Failed(fmt.Errorf("%w: %s tier panicked: %v", domain.ErrDependencyUnavailable, st.tier, p))
		}
	}()
	return st.strategy.Search(ctx, query, s.cfg.TopK)
}

func (s *Service) limit(maxResults int) int {
	if maxResults <= 0 {
		return s.cfg.DefaultResults
	}
	return min(maxResults, s.cfg.MaxResults)
}

// known drops matches whose entry is no longer in the snapshot.
func known(r match.Ranking, snap *faq.Snapshot) match.Ranking {
	ms := r.Matches()
	kept := make([]match.Match, 0, len(ms))
	for _, m := range ms {
		if _, ok := snap.Get(m.ID()); ok {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(ms) {
		return r
	}
	return match.Ranked(kept)
}

func hydrate(r match.Ranking, snap *faq.Snapshot, n int) []outcome.Hit {
	ms := r.Truncate(n).Matches()
	hits := make([]outcome.Hit, 0, len(ms))
	for _, m := range ms {
		if e, ok := snap.Get(m.ID()); ok {
			hits = append(hits, outcome.NewHit(e, m.Score()))
		}
	}
	return hits
}

// FailureReason classifies a tier failure for metrics labels.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return "dimension_mismatch"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding_provider"
	default:
		return "unavailable"
	}
}
