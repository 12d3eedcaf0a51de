package retrieval

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
)

// Strategy is the capability shared by every cascade tier.
// Implementations must not panic and report unavailability as a failed ranking.
type Strategy interface {
	Search(ctx context.Context, query string, k int) match.Ranking
}

// CorpusReader exposes the current corpus snapshot for hit hydration.
type CorpusReader interface {
	Snapshot() *faq.Snapshot
}
