package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain"
)

// vecByLen embeds text as a one-component vector holding its length.
func vecByLen(text string) []float32 { return []float32{float32(len(text))} }

// fakeProvider counts provider traffic. Batch is optional so both the native
// and the per-text paths can be exercised.
type fakeProvider struct {
	tokensPerText int
	err           error
	shortBy       int // drop this many embeddings from batch replies

	embedded []string
	batches  [][]string
}

func (f *fakeProvider) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	f.embedded = append(f.embedded, text)
	return domain.EmbeddingResult{Embedding: vecByLen(text), PromptTokens: f.tokensPerText, TotalTokens: f.tokensPerText}, nil
}

type batchProvider struct{ *fakeProvider }

func (b batchProvider) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if b.err != nil {
		return domain.BatchEmbeddingResult{}, b.err
	}
	b.batches = append(b.batches, texts)
	out := domain.BatchEmbeddingResult{
		PromptTokens: b.tokensPerText * len(texts),
		TotalTokens:  b.tokensPerText * len(texts),
	}
	for _, t := range texts[:len(texts)-b.shortBy] {
		out.Embeddings = append(out.Embeddings, vecByLen(t))
	}
	return out, nil
}

// memKV is an in-memory store with optional failure injection.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	plain   int
	withTTL int
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plain++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withTTL++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCacheTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_embedding_cache_total"}, []string{"result"})
}

func newTestCache(t *testing.T, inner domain.Embedder, kv *memKV, cfg Config) (*CachedEmbedder, *prometheus.CounterVec) {
	t.Helper()
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "faqdex:"
	}
	if cfg.Model == "" {
		cfg.Model = "test-model"
	}
	total := newCacheTotal()
	return New(inner, kv, cfg, total, zap.NewNop()), total
}
