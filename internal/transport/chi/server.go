package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/outcome"
	"github.com/kailas-cloud/faqdex/internal/logger"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	"github.com/kailas-cloud/faqdex/internal/version"
)

// maxBodyBytes bounds request bodies; queries are short.
const maxBodyBytes = 64 << 10

// Searcher runs the retrieval cascade.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) outcome.Outcome
}

// Corpus serves and reloads the FAQ snapshot.
type Corpus interface {
	Get(id string) (domfaq.Entry, error)
	Load(ctx context.Context) (*domfaq.Snapshot, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the FAQ API.
type Server struct {
	search        Searcher
	corpus        Corpus
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, corpus Corpus, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		corpus: corpus,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeFAQNotFound),
		sentinelHandler(domain.ErrInvalidEntry, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, ErrorCodeConfiguration),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProvider),
		sentinelHandler(domain.ErrDependencyUnavailable, http.StatusServiceUnavailable, ErrorCodeDependencyDown),
	}
	return s
}

// Search handles POST /v1/search. Only malformed JSON is a client error:
// empty or unusable queries are answered with tier "none".
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, outcomeToResponse(s.search.Search(r.Context(), req.Query, derefInt(req.MaxResults))))
}

// SearchGet handles GET /v1/search?q=...&limit=N.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	var q *string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid parameter q: "+err.Error())
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid parameter limit: "+err.Error())
		return
	}

	query := ""
	if q != nil {
		query = *q
	}
	writeJSON(w, http.StatusOK, outcomeToResponse(s.search.Search(r.Context(), query, derefInt(limit))))
}

// GetFAQ handles GET /v1/faqs/{id}.
func (s *Server) GetFAQ(w http.ResponseWriter, r *http.Request) {
	e, err := s.corpus.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, faqToResponse(e))
}

// ReloadCorpus handles POST /v1/corpus/reload.
func (s *Server) ReloadCorpus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.corpus.Load(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Version: snap.Version(), Entries: snap.Len()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthToResponse(report))
}

// Live handles GET /health/live: the process is up.
func (s *Server) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: string(healthuc.Healthy), Version: version.Version})
}

// Ready handles GET /health/ready: 503 until something can be answered.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	s.HealthCheck(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidEntry,
		domain.ErrConfiguration,
		domain.ErrEmbeddingProviderError,
		domain.ErrDependencyUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func outcomeToResponse(o outcome.Outcome) SearchResponse {
	resp := SearchResponse{
		Tier:      o.Tier().String(),
		BestScore: o.BestScore(),
		Reason:    o.Reason(),
		Results:   make([]SearchHit, 0, len(o.Hits())),
	}
	if o.SourceTier() != "" {
		resp.SourceTier = o.SourceTier().String()
	}
	for _, h := range o.Hits() {
		resp.Results = append(resp.Results, SearchHit{FAQ: faqToResponse(h.Entry()), Score: h.Score()})
	}
	return resp
}

func faqToResponse(e domfaq.Entry) FAQ {
	return FAQ{ID: e.ID(), Question: e.Question(), Answer: e.Answer(), Tags: e.Tags()}
}

func healthToResponse(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{
		Status:        string(r.Status),
		Checks:        checks,
		CorpusEntries: r.CorpusEntries,
		CorpusVersion: r.CorpusVersion,
		Version:       version.Version,
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
