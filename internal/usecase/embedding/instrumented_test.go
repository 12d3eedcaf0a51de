package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/faqdex/internal/domain"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	batchShort bool
	batchSizes []int
	delay      time.Duration
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	time.Sleep(m.delay)
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	n := len(texts)
	if m.batchShort {
		n--
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, n)}
	for i := range out.Embeddings {
		out.Embeddings[i] = m.result.Embedding
	}
	out.PromptTokens = m.result.PromptTokens * len(texts)
	out.TotalTokens = m.result.TotalTokens * len(texts)
	return out, nil
}

// plainEmbedder implements only domain.Embedder.
type plainEmbedder struct {
	result domain.EmbeddingResult
	calls  int
}

func (m *plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, nil
}

func newTestEmbedder(inner domain.Embedder, dims int) *InstrumentedEmbedder {
	return NewInstrumentedEmbedder(inner, Config{Provider: "test", Model: "mini", Dimensions: dims}, zap.NewNop())
}

func TestEmbed_PassesValidVector(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 7}}

	res, err := newTestEmbedder(inner, 3).Embed(context.Background(), "how do I reset my password")
	require.NoError(t, err)
	assert.Len(t, res.Embedding, 3)
	assert.Equal(t, 7, res.TotalTokens)
}

func TestEmbed_RejectsUnusableVectors(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name string
		vec  []float32
		dims int
		want error
	}{
		{"wrong size", []float32{0.1, 0.2, 0.3}, 384, domain.ErrVectorDimMismatch},
		{"nan", []float32{0.1, nan}, 2, domain.ErrEmbeddingProviderError},
		{"inf", []float32{inf, 0.1}, 2, domain.ErrEmbeddingProviderError},
		{"zero", []float32{0, 0}, 2, domain.ErrEmbeddingProviderError},
		{"zero without size check", []float32{0, 0, 0}, 0, domain.ErrEmbeddingProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: tt.vec}}
			_, err := newTestEmbedder(inner, tt.dims).Embed(context.Background(), "q")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	_, err := newTestEmbedder(inner, 0).Embed(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
}

func TestEmbed_LogsSlowCalls(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}, delay: 20 * time.Millisecond}
	p := NewInstrumentedEmbedder(inner, Config{Provider: "test", Model: "mini", SlowThreshold: time.Millisecond}, zap.New(core))

	_, err := p.Embed(context.Background(), "q")
	require.NoError(t, err)

	slow := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, slow, 1)
	assert.Equal(t, "Slow embedding request", slow[0].Message)
	assert.Equal(t, "mini", slow[0].ContextMap()["model"])
}

func TestBatchEmbed_ChunksAndSumsTokens(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}, TotalTokens: 1}}
	p := NewInstrumentedEmbedder(inner, Config{Provider: "test", Model: "mini", Dimensions: 1, MaxBatch: 2}, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, res.Embeddings, 5)
	assert.Equal(t, []int{2, 2, 1}, inner.batchSizes)
	assert.Equal(t, 5, res.TotalTokens)
}

func TestBatchEmbed_DefaultChunkSize(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}}}
	texts := make([]string, DefaultMaxAPIBatchSize+1)

	res, err := newTestEmbedder(inner, 1).BatchEmbed(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, res.Embeddings, len(texts))
	assert.Equal(t, []int{DefaultMaxAPIBatchSize, 1}, inner.batchSizes)
}

func TestBatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	res, err := newTestEmbedder(inner, 0).BatchEmbed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, res.Embeddings)
	assert.Empty(t, inner.batchSizes)
}

func TestBatchEmbed_Errors(t *testing.T) {
	t.Run("inner", func(t *testing.T) {
		inner := &mockEmbedder{batchErr: errors.New("429 too many requests")}
		_, err := newTestEmbedder(inner, 0).BatchEmbed(context.Background(), []string{"a"})
		assert.ErrorContains(t, err, "429")
	})

	t.Run("short reply", func(t *testing.T) {
		inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}, batchShort: true}
		_, err := newTestEmbedder(inner, 1).BatchEmbed(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
	})

	t.Run("dimension", func(t *testing.T) {
		inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
		_, err := newTestEmbedder(inner, 2).BatchEmbed(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, domain.ErrVectorDimMismatch)
		assert.ErrorContains(t, err, "text 0")
	})
}

func TestBatchEmbed_FallsBackToEmbed(t *testing.T) {
	inner := &plainEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.3}, TotalTokens: 4}}

	res, err := newTestEmbedder(inner, 1).BatchEmbed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, res.Embeddings, 2)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 8, res.TotalTokens)
}
