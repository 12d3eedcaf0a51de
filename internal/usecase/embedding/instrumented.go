package embedding

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest number of texts sent in one API request.
const DefaultMaxAPIBatchSize = 256

// Config describes the provider behind an InstrumentedEmbedder.
type Config struct {
	Provider   string
	Model      string
	Dimensions int // <= 0 disables the size check
	// MaxBatch caps texts per inner BatchEmbed call, DefaultMaxAPIBatchSize when <= 0.
	MaxBatch int
	// SlowThreshold logs a warning for calls that take longer, disabled when zero.
	SlowThreshold time.Duration
}

// InstrumentedEmbedder guards vectors before they reach the index or a KNN
// query: wrong size, NaN/Inf components and all-zero vectors are rejected,
// since cosine similarity is undefined for them. It also chunks batches and
// logs slow or failed calls. Transport metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	cfg    Config
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner.
func NewInstrumentedEmbedder(inner domain.Embedder, cfg Config, logger *zap.Logger) *InstrumentedEmbedder {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxAPIBatchSize
	}
	return &InstrumentedEmbedder{inner: inner, cfg: cfg, logger: logger}
}

func (p *InstrumentedEmbedder) fields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{zap.String("provider", p.cfg.Provider), zap.String("model", p.cfg.Model)}, extra...)
}

func (p *InstrumentedEmbedder) observe(op string, start time.Time, extra ...zap.Field) {
	d := time.Since(start)
	extra = append(extra, zap.Duration("duration", d))
	if p.cfg.SlowThreshold > 0 && d > p.cfg.SlowThreshold {
		p.logger.Warn("Slow "+op, p.fields(extra...)...)
		return
	}
	p.logger.Debug(op+" completed", p.fields(extra...)...)
}

// Embed delegates to the inner embedder and validates the vector.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	if err != nil {
		p.logger.Error("Embedding request failed", p.fields(zap.Duration("duration", time.Since(start)), zap.Error(err))...)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if err := p.validate(result.Embedding); err != nil {
		return domain.EmbeddingResult{}, err
	}

	p.observe("embedding request", start, zap.Int("total_tokens", result.TotalTokens))
	return result, nil
}

// BatchEmbed sends texts in MaxBatch chunks and validates every vector.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.cfg.MaxBatch {
		chunk := texts[offset:min(offset+p.cfg.MaxBatch, len(texts))]

		res, err := domain.EmbedBatch(ctx, p.inner, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				p.fields(zap.Int("chunk_offset", offset), zap.Int("chunk_size", len(chunk)), zap.Error(err))...)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		if len(res.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: %d embeddings for %d texts",
				domain.ErrEmbeddingProviderError, len(res.Embeddings), len(chunk))
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	for i, vec := range out.Embeddings {
		if err := p.validate(vec); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("text %d: %w", i, err)
		}
	}

	p.observe("batch embedding", start, zap.Int("batch_size", len(texts)), zap.Int("total_tokens", out.TotalTokens))
	return out, nil
}

func (p *InstrumentedEmbedder) validate(vec []float32) error {
	if p.cfg.Dimensions > 0 {
		if err := domain.CheckDimensions(vec, p.cfg.Dimensions); err != nil {
			p.logger.Error("Embedding dimension mismatch",
				p.fields(zap.Int("got", len(vec)), zap.Int("want", p.cfg.Dimensions))...)
			return fmt.Errorf("embedding from %s/%s: %w", p.cfg.Provider, p.cfg.Model, err)
		}
	}

	var norm float64
	for _, x := range vec {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite vector component", domain.ErrEmbeddingProviderError)
		}
		norm += f * f
	}
	if norm == 0 {
		return fmt.Errorf("%w: zero vector", domain.ErrEmbeddingProviderError)
	}
	return nil
}
