package chi

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeFAQNotFound       ErrorCode = "faq_not_found"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeConfiguration     ErrorCode = "configuration_error"
	ErrorCodeDependencyDown    ErrorCode = "dependency_unavailable"
	ErrorCodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

// SearchResponse reports which tier answered and the hits it produced.
type SearchResponse struct {
	Tier       string      `json:"tier"`
	SourceTier string      `json:"source_tier,omitempty"`
	BestScore  float64     `json:"best_score"`
	Reason     string      `json:"reason,omitempty"`
	Results    []SearchHit `json:"results"`
}

// SearchHit is one answered FAQ.
type SearchHit struct {
	FAQ
	Score float64 `json:"score"`
}

// FAQ is the public view of an entry.
type FAQ struct {
	ID       string            `json:"id"`
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// ReloadResponse is returned by POST /v1/corpus/reload.
type ReloadResponse struct {
	Version uint64 `json:"version"`
	Entries int    `json:"entries"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks,omitempty"`
	CorpusEntries int               `json:"corpus_entries"`
	CorpusVersion uint64            `json:"corpus_version"`
	Version       string            `json:"version,omitempty"`
}
