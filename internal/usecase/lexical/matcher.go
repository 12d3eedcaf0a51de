package lexical

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
)

// CorpusReader exposes the current corpus snapshot.
type CorpusReader interface {
	Snapshot() *faq.Snapshot
}

// Config tunes n-gram scoring.
type Config struct {
	N            int
	Mode         Mode
	AnswerWeight float64 // weight of query containment in the answer, in [0, 1]
}

type entryProfile struct {
	id       string
	question gramSet
	answer   gramSet
}

type profileSet struct {
	version  uint64
	profiles []entryProfile
}

// Matcher is the lexical n-gram tier. Scores are deterministic for a given
// snapshot and configuration; ties are broken by id.
type Matcher struct {
	corpus CorpusReader
	cfg    Config
	cache  atomic.Pointer[profileSet]
}

// New creates a lexical matcher.
func New(corpus CorpusReader, cfg Config) *Matcher {
	if cfg.N <= 0 {
		cfg.N = 3
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeChar
	}
	return &Matcher{corpus: corpus, cfg: cfg}
}

// Search scores every FAQ entry against the query and returns the k best with a positive score.
// Score = max(dice(query, question), AnswerWeight * containment(query, answer)).
func (m *Matcher) Search(_ context.Context, query string, k int) match.Ranking {
	q := grams(Normalize(query), m.cfg.N, m.cfg.Mode)
	if len(q) == 0 {
		return match.Ranked(nil)
	}

	ps := m.profiles()
	if ps == nil {
		return match.Ranked(nil)
	}

	ms := make([]match.Match, 0, len(ps.profiles))
	for i := range ps.profiles {
		p := &ps.profiles[i]
		score := max(dice(q, p.question), m.cfg.AnswerWeight*containment(q, p.answer))
		if score > 0 {
			ms = append(ms, match.New(p.id, score))
		}
	}

	return match.Ranked(ms).Truncate(k)
}

// profiles returns n-gram profiles for the current snapshot, rebuilding them on version change.
func (m *Matcher) profiles() *profileSet {
	snap := m.corpus.Snapshot()
	if snap == nil {
		return nil
	}
	if ps := m.cache.Load(); ps != nil && ps.version == snap.Version() {
		return ps
	}

	entries := snap.Entries()
	ps := &profileSet{version: snap.Version(), profiles: make([]entryProfile, len(entries))}
	for i, e := range entries {
		ps.profiles[i] = m.profile(e)
	}
	m.cache.Store(ps)
	return ps
}

func (m *Matcher) profile(e faq.Entry) entryProfile {
	return entryProfile{
		id:       e.ID(),
		question: grams(Normalize(e.Question()), m.cfg.N, m.cfg.Mode),
		answer:   grams(Normalize(e.Answer()), m.cfg.N, m.cfg.Mode),
	}
}
