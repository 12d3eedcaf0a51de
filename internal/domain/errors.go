package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidEntry signals a malformed FAQ entry.
	ErrInvalidEntry = errors.New("invalid faq entry")
	// ErrConfiguration signals an invalid startup configuration. Always fatal.
	ErrConfiguration = errors.New("configuration error")
	// ErrDependencyUnavailable signals an unreachable or timed out backend.
	// The retrieval cascade treats it as a tier miss.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
