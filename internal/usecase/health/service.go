package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; the cascade still answers from the in-memory corpus.
	Degraded Status = "degraded"
	// Unhealthy indicates nothing can be answered: no corpus and no database.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
	CheckCorpus    = "corpus"
)

// Report aggregates health check results.
type Report struct {
	Status        Status
	Checks        map[string]CheckResult
	CorpusEntries int
	CorpusVersion uint64
}

// DefaultProbeTimeout bounds each dependency probe.
const DefaultProbeTimeout = 2 * time.Second

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	corpus    CorpusReader
	timeout   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithProbeTimeout overrides DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service. embedding and corpus can be nil.
func New(db DBPinger, embedding EmbeddingChecker, corpus CorpusReader, opts ...Option) *Service {
	s := &Service{db: db, embedding: embedding, corpus: corpus, timeout: DefaultProbeTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check probes the database and the embedding provider in parallel and
// reads the corpus snapshot. An empty corpus with an unreachable database
// is Unhealthy; any other failure is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{CheckDatabase: s.db.Ping}
	if s.embedding != nil {
		probes[CheckEmbedding] = s.embedding.HealthCheck
	}

	r := Report{Checks: make(map[string]CheckResult, len(probes)+1)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.probe(ctx, name, probe)
			mu.Lock()
			r.Checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	if s.corpus != nil {
		snap := s.corpus.Snapshot()
		r.CorpusEntries = snap.Len()
		r.CorpusVersion = snap.Version()
		r.Checks[CheckCorpus] = CheckOK
		if snap.Len() == 0 {
			r.Checks[CheckCorpus] = CheckError
		}
	}

	r.Status = Healthy
	for _, v := range r.Checks {
		if v == CheckError {
			r.Status = Degraded
			break
		}
	}
	if r.Checks[CheckDatabase] == CheckError && r.Checks[CheckCorpus] == CheckError {
		r.Status = Unhealthy
	}
	return r
}

func (s *Service) probe(ctx context.Context, name string, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health probe failed", zap.String("check", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
