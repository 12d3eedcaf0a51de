package faqdex

import "github.com/kailas-cloud/faqdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidEntry           = domain.ErrInvalidEntry
	ErrConfiguration          = domain.ErrConfiguration
	ErrDependencyUnavailable  = domain.ErrDependencyUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
)
