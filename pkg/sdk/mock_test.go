package faqdex

import (
	"context"
	"strings"

	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/outcome"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	"github.com/kailas-cloud/faqdex/internal/usecase/ingest"
)

// --- use case mocks ---

type mockRetrieval struct {
	searchFn func(ctx context.Context, query string, maxResults int) outcome.Outcome
}

func (m *mockRetrieval) Search(ctx context.Context, query string, maxResults int) outcome.Outcome {
	return m.searchFn(ctx, query, maxResults)
}

type mockCorpus struct {
	getFn  func(id string) (domfaq.Entry, error)
	loadFn func(ctx context.Context) (*domfaq.Snapshot, error)
}

func (m *mockCorpus) Get(id string) (domfaq.Entry, error) { return m.getFn(id) }

func (m *mockCorpus) Load(ctx context.Context) (*domfaq.Snapshot, error) { return m.loadFn(ctx) }

type mockIngest struct {
	syncFn func(ctx context.Context, entries []domfaq.Entry, opts ingest.Options) (ingest.Report, error)
}

func (m *mockIngest) Sync(ctx context.Context, entries []domfaq.Entry, opts ingest.Options) (ingest.Report, error) {
	return m.syncFn(ctx, entries, opts)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// keywordEmbedder maps a few topic words onto orthogonal axes of a 4-dim space.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	v := make([]float32, 4)
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "password"):
		v[0] = 1
	case strings.Contains(lower, "refund"):
		v[1] = 1
	case strings.Contains(lower, "shipping"):
		v[2] = 1
	default:
		v[3] = 1
	}
	return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

// newMockClient builds a Client around mocks; nil arguments get inert defaults.
func newMockClient(r retrievalUseCase, c corpusUseCase, i ingestUseCase) *Client {
	if c == nil {
		c = &mockCorpus{loadFn: func(context.Context) (*domfaq.Snapshot, error) {
			return domfaq.NewSnapshot(1, nil), nil
		}}
	}
	return &Client{
		retrieval: r,
		corpus:    c,
		ingest:    i,
		healthSvc: &mockHealth{},
		stop:      func() {},
	}
}
