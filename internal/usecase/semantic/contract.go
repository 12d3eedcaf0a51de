package semantic

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
)

// Index runs nearest-neighbour search over stored FAQ vectors.
// Scores are raw cosine similarities in [-1, 1].
type Index interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]match.Match, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
