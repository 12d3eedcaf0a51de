package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
	"github.com/kailas-cloud/faqdex/internal/domain/search/outcome"
	"github.com/kailas-cloud/faqdex/internal/domain/search/threshold"
	"github.com/kailas-cloud/faqdex/internal/domain/search/tier"
	"github.com/kailas-cloud/faqdex/internal/usecase/lexical"
)

// --- Mocks ---

type mockStrategy struct {
	mu      sync.Mutex
	ranking match.Ranking
	panics  bool
	calls   int
	gotK    int
}

func (m *mockStrategy) Search(_ context.Context, _ string, k int) match.Ranking {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotK = k
	if m.panics {
		panic("boom")
	}
	return m.ranking
}

func ranked(pairs ...any) match.Ranking {
	ms := make([]match.Match, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ms = append(ms, match.New(pairs[i].(string), pairs[i+1].(float64)))
	}
	return match.Ranked(ms)
}

func down() match.Ranking {
	return match.Failed(domain.ErrDependencyUnavailable)
}

type staticCorpus struct {
	snap *faq.Snapshot
}

func (c *staticCorpus) Snapshot() *faq.Snapshot { return c.snap }

func testCorpus() *staticCorpus {
	return &staticCorpus{snap: faq.NewSnapshot(1, []faq.Entry{
		faq.Reconstruct("reset-password", "How do I reset my password?",
			"Click 'Forgot password' on the login page and follow the email link.", nil, nil),
		faq.Reconstruct("refund-policy", "What is your refund policy?",
			"Refunds are issued within 14 days of purchase.", nil, nil),
		faq.Reconstruct("shipping-time", "How long does shipping take?",
			"Standard shipping takes 3-5 business days.", nil, nil),
		faq.Reconstruct("delete-account", "How do I delete my account?",
			"Go to Settings, then Privacy, then Delete account.", nil, nil),
	})}
}

func newService(vector, lex Strategy, th threshold.Thresholds) *Service {
	return New(vector, lex, testCorpus(), Config{Thresholds: th, TopK: 10, DefaultResults: 3, MaxResults: 5})
}

func realLexical() *lexical.Matcher {
	return lexical.New(testCorpus(), lexical.Config{N: 3, Mode: lexical.ModeChar, AnswerWeight: 0.5})
}

// --- Tests ---

func TestSearch_VectorHitSkipsLexical(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("reset-password", 0.82, "delete-account", 0.41)}
	lex := &mockStrategy{ranking: ranked("refund-policy", 0.9)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "how can I change my password", 0)

	if out.Tier() != tier.Vector {
		t.Fatalf("tier = %q, want vector", out.Tier())
	}
	if lex.calls != 0 {
		t.Error("lexical tier must not run after a vector hit")
	}
	hits := out.Hits()
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Entry().ID() != "reset-password" || hits[0].Score() != 0.82 {
		t.Errorf("unexpected top hit %s/%v", hits[0].Entry().ID(), hits[0].Score())
	}
	if hits[0].Entry().Answer() == "" {
		t.Error("hit should be hydrated with the FAQ entry")
	}
	if vec.gotK != 10 {
		t.Errorf("vector k = %d, want 10", vec.gotK)
	}
}

func TestSearch_ThresholdBoundaryIsInclusive(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("reset-password", 0.5)}
	lex := &mockStrategy{ranking: ranked()}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "password", 0)
	if out.Tier() != tier.Vector {
		t.Fatalf("score equal to threshold must be accepted, got %q", out.Tier())
	}
}

func TestSearch_VectorDownFallsBackToLexical(t *testing.T) {
	vec := &mockStrategy{ranking: down()}
	s := newService(vec, realLexical(), threshold.Default())

	out := s.Search(context.Background(), "I forgot my password", 0)

	if out.Tier() != tier.Lexical {
		t.Fatalf("tier = %q, want lexical", out.Tier())
	}
	if out.Hits()[0].Entry().ID() != "reset-password" {
		t.Errorf("top hit = %s", out.Hits()[0].Entry().ID())
	}
	if vec.calls != 1 {
		t.Errorf("vector calls = %d, want 1 (no retries)", vec.calls)
	}
}

func TestSearch_GibberishIsNoMatch(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("refund-policy", 0.04)}
	s := newService(vec, realLexical(), threshold.Default())

	out := s.Search(context.Background(), "xyzzy qwjk", 0)

	if out.Tier() != tier.None {
		t.Fatalf("tier = %q, want none", out.Tier())
	}
	if out.Reason() != outcome.ReasonBelowThreshold {
		t.Errorf("reason = %q", out.Reason())
	}
	if out.BestScore() != 0.04 {
		t.Errorf("best score = %v, want 0.04", out.BestScore())
	}
	if len(out.Hits()) != 0 {
		t.Errorf("no-match must not carry hits")
	}
}

func TestSearch_EmergencyPrefersVectorOnTie(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("refund-policy", 0.2)}
	lex := &mockStrategy{ranking: ranked("shipping-time", 0.2)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "money back", 0)

	if out.Tier() != tier.Emergency {
		t.Fatalf("tier = %q, want emergency", out.Tier())
	}
	if out.SourceTier() != tier.Vector {
		t.Errorf("source tier = %q, want vector", out.SourceTier())
	}
	if out.Hits()[0].Entry().ID() != "refund-policy" {
		t.Errorf("top hit = %s", out.Hits()[0].Entry().ID())
	}
}

func TestSearch_RefundEmergencyFromVector(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("refund-policy", 0.2)}
	lex := &mockStrategy{ranking: ranked("refund-policy", 0.15)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "refund", 0)

	if out.Tier() != tier.Emergency {
		t.Fatalf("tier = %q, want emergency", out.Tier())
	}
	if out.SourceTier() != tier.Vector {
		t.Errorf("source tier = %q, want vector", out.SourceTier())
	}
	if len(out.Hits()) != 1 || out.Hits()[0].Entry().ID() != "refund-policy" {
		t.Fatalf("hits = %+v, want [refund-policy]", out.Hits())
	}
	if out.Hits()[0].Score() != 0.2 {
		t.Errorf("hit score = %v, want 0.2", out.Hits()[0].Score())
	}
	if out.BestScore() != 0.2 {
		t.Errorf("best score = %v, want 0.2", out.BestScore())
	}
	if vec.calls != 1 || lex.calls != 1 {
		t.Errorf("calls vector=%d lexical=%d, want 1 each", vec.calls, lex.calls)
	}
}

func TestSearch_GibberishBelowEmergencyFloor(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("refund-policy", 0.05)}
	lex := &mockStrategy{ranking: ranked("shipping-time", 0.08)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "xyzzy qwjk", 0)

	if out.Tier() != tier.None {
		t.Fatalf("tier = %q, want none", out.Tier())
	}
	if out.Reason() != outcome.ReasonBelowThreshold {
		t.Errorf("reason = %q, want %q", out.Reason(), outcome.ReasonBelowThreshold)
	}
	if out.BestScore() != 0.08 {
		t.Errorf("best score = %v, want 0.08", out.BestScore())
	}
	if len(out.Hits()) != 0 {
		t.Errorf("no-match must not carry hits")
	}
	if lex.calls != 1 {
		t.Errorf("lexical calls = %d, want 1", lex.calls)
	}
}

func TestSearch_EmergencyUsesBestTier(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("refund-policy", 0.12)}
	lex := &mockStrategy{ranking: ranked("shipping-time", 0.25, "refund-policy", 0.11)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "delivery", 0)

	if out.Tier() != tier.Emergency || out.SourceTier() != tier.Lexical {
		t.Fatalf("got %q from %q, want emergency from lexical", out.Tier(), out.SourceTier())
	}
	if len(out.Hits()) != 2 {
		t.Errorf("emergency outcome should keep the full ranked list, got %d", len(out.Hits()))
	}
}

func TestSearch_EmergencyWhenVectorDown(t *testing.T) {
	vec := &mockStrategy{ranking: down()}
	lex := &mockStrategy{ranking: ranked("shipping-time", 0.15)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "parcel", 0)
	if out.Tier() != tier.Emergency || out.SourceTier() != tier.Lexical {
		t.Fatalf("got %q from %q", out.Tier(), out.SourceTier())
	}
}

func TestSearch_AllTiersDown(t *testing.T) {
	s := newService(&mockStrategy{ranking: down()}, &mockStrategy{ranking: down()}, threshold.Default())

	out := s.Search(context.Background(), "password", 0)
	if out.Tier() != tier.None || out.BestScore() != 0 {
		t.Fatalf("got %q/%v, want none/0", out.Tier(), out.BestScore())
	}
}

func TestSearch_InvalidQuery(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("reset-password", 0.9)}
	lex := &mockStrategy{ranking: ranked("reset-password", 0.9)}
	s := newService(vec, lex, threshold.Default())

	for _, q := range []string{"", "   ", "\t\n", "?!...", "👋", "how do I", "What is the...?", "Can you?"} {
		out := s.Search(context.Background(), q, 0)
		if out.Tier() != tier.None || out.Reason() != outcome.ReasonInvalidQuery {
			t.Errorf("query %q: got %q/%q, want none/invalid_query", q, out.Tier(), out.Reason())
		}
	}
	if vec.calls != 0 || lex.calls != 0 {
		t.Error("no tier may run for an invalid query")
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("reset-password", 0.9)}
	s := New(vec, &mockStrategy{}, &staticCorpus{snap: faq.NewSnapshot(1, nil)},
		Config{Thresholds: threshold.Default()})

	out := s.Search(context.Background(), "password", 0)
	if out.Reason() != outcome.ReasonEmptyCorpus {
		t.Fatalf("reason = %q, want empty_corpus", out.Reason())
	}
}

func TestSearch_StaleIndexEntriesDropped(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("deleted-faq", 0.95, "reset-password", 0.4)}
	lex := &mockStrategy{ranking: ranked()}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "password", 0)

	// the stale 0.95 hit must not carry the vector tier over its threshold
	if out.Tier() != tier.Emergency {
		t.Fatalf("tier = %q, want emergency", out.Tier())
	}
	for _, h := range out.Hits() {
		if h.Entry().ID() == "deleted-faq" {
			t.Error("stale id leaked into hits")
		}
	}
}

func TestSearch_ResultLimits(t *testing.T) {
	vec := &mockStrategy{ranking: ranked(
		"reset-password", 0.9, "refund-policy", 0.8, "shipping-time", 0.7, "delete-account", 0.6,
	)}
	s := newService(vec, &mockStrategy{}, threshold.Default())

	tests := []struct {
		max  int
		want int
	}{
		{0, 3},   // default
		{-1, 3},  // default
		{2, 2},   // explicit
		{100, 4}, // capped at MaxResults=5, only 4 candidates
	}
	for _, tt := range tests {
		out := s.Search(context.Background(), "question", tt.max)
		if len(out.Hits()) != tt.want {
			t.Errorf("max=%d: got %d hits, want %d", tt.max, len(out.Hits()), tt.want)
		}
	}
}

func TestSearch_PanickingTierIsAMiss(t *testing.T) {
	vec := &mockStrategy{panics: true}
	lex := &mockStrategy{ranking: ranked("reset-password", 0.6)}
	s := newService(vec, lex, threshold.Default())

	out := s.Search(context.Background(), "password", 0)
	if out.Tier() != tier.Lexical {
		t.Fatalf("tier = %q, want lexical", out.Tier())
	}
}

func TestSearch_Idempotent(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("refund-policy", 0.3)}
	s := newService(vec, realLexical(), threshold.Default())

	first := s.Search(context.Background(), "refund my order", 0)
	for range 5 {
		again := s.Search(context.Background(), "refund my order", 0)
		if again.Tier() != first.Tier() || again.BestScore() != first.BestScore() ||
			len(again.Hits()) != len(first.Hits()) {
			t.Fatalf("non-idempotent outcome: %q/%v vs %q/%v",
				again.Tier(), again.BestScore(), first.Tier(), first.BestScore())
		}
	}
}

func TestSearch_MonotonicInVectorThreshold(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("reset-password", 0.62)}
	lex := &mockStrategy{ranking: ranked("reset-password", 0.35)}

	wasVector := true
	for _, vt := range []float64{0.3, 0.4, 0.5, 0.6, 0.62, 0.7, 0.8, 0.9, 1.0} {
		th, err := threshold.New(vt, 0.3, 0.1)
		if err != nil {
			t.Fatalf("threshold.New: %v", err)
		}
		isVector := newService(vec, lex, th).Search(context.Background(), "password", 0).Tier() == tier.Vector
		if isVector && !wasVector {
			t.Fatalf("raising vector threshold to %v turned a non-vector outcome into a vector one", vt)
		}
		wasVector = isVector
	}
	if wasVector {
		t.Error("threshold 1.0 should reject a 0.62 vector score")
	}
}

func TestSearch_NeverPanics(t *testing.T) {
	s := newService(&mockStrategy{ranking: down()}, realLexical(), threshold.Default())

	queries := []string{
		"", " ", "a", "password", strings.Repeat("refund ", 2000),
		"пароль", "密码重置", "\x00\xff", "'; DROP TABLE faq; --", "🙂🙂🙂",
	}
	for _, q := range queries {
		out := s.Search(context.Background(), q, 3)
		if !out.Tier().IsValid() {
			t.Errorf("query %q produced invalid tier %q", q, out.Tier())
		}
		if out.BestScore() < 0 || out.BestScore() > 1 {
			t.Errorf("query %q: best score %v outside [0,1]", q, out.BestScore())
		}
	}
}

func TestSearch_ConcurrentUse(t *testing.T) {
	vec := &mockStrategy{ranking: ranked("reset-password", 0.7)}
	s := newService(vec, realLexical(), threshold.Default())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if out := s.Search(context.Background(), "password", 0); out.Tier() != tier.Vector {
					t.Errorf("tier = %q", out.Tier())
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRelax(t *testing.T) {
	attempts := []Attempt{
		{Tier: tier.Vector, Ranking: ranked("a", 0.15)},
		{Tier: tier.Lexical, Ranking: ranked("b", 0.15)},
	}

	best, ok := Relax(attempts, 0.1)
	if !ok || best.Tier != tier.Vector {
		t.Fatalf("got %q/%v, want vector/true", best.Tier, ok)
	}

	if _, ok := Relax(attempts, 0.2); ok {
		t.Error("0.15 must not clear a 0.2 emergency bar")
	}
	if _, ok := Relax(nil, 0); ok {
		t.Error("no attempts can never relax")
	}
	if _, ok := Relax([]Attempt{{Tier: tier.Vector, Ranking: ranked()}}, 0); ok {
		t.Error("empty ranking can never relax")
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{domain.ErrVectorDimMismatch, "dimension_mismatch"},
		{domain.ErrEmbeddingProviderError, "embedding_provider"},
		{errors.New("dial tcp: refused"), "unavailable"},
	}
	for _, tt := range tests {
		if got := FailureReason(tt.err); got != tt.want {
			t.Errorf("FailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
