package faqdex

import (
	"github.com/kailas-cloud/faqdex/internal/domain/search/outcome"
	"github.com/kailas-cloud/faqdex/internal/domain/search/tier"
)

// Tier identifies the cascade stage that produced an answer.
type Tier string

// Tier constants.
const (
	TierVector    Tier = Tier(tier.Vector)
	TierLexical   Tier = Tier(tier.Lexical)
	TierEmergency Tier = Tier(tier.Emergency)
	TierNone      Tier = Tier(tier.None)
)

// No-match reasons.
const (
	ReasonInvalidQuery   = outcome.ReasonInvalidQuery
	ReasonBelowThreshold = outcome.ReasonBelowThreshold
	ReasonEmptyCorpus    = outcome.ReasonEmptyCorpus
)

// NgramMode selects how the lexical tier splits text.
type NgramMode string

// N-gram modes.
const (
	NgramChar NgramMode = "char"
	NgramWord NgramMode = "word"
)

// FAQ is a question/answer pair. An empty ID is derived from the question.
type FAQ struct {
	ID       string
	Question string
	Answer   string
	Tags     map[string]string
}

// Hit is an answered FAQ with the confidence assigned by its tier, in [0, 1].
type Hit struct {
	FAQ
	Score float64
}

// Outcome is the answer to one query.
type Outcome struct {
	Tier       Tier
	SourceTier Tier // ranking the emergency tier relaxed; equals Tier otherwise
	BestScore  float64
	Reason     string // set only when Tier is TierNone
	Hits       []Hit
}

// IsMatch reports whether any tier produced an answer.
func (o Outcome) IsMatch() bool { return o.Tier != TierNone }

// SyncOptions select Sync behavior.
type SyncOptions struct {
	Force  bool // re-embed unchanged entries
	DryRun bool // plan only
	Prune  bool // delete stored FAQs missing from the input
}

// SyncError is a per-FAQ failure.
type SyncError struct {
	ID  string
	Err error
}

// SyncReport summarizes a sync by FAQ id.
type SyncReport struct {
	Upserted  []string
	Unchanged []string
	Deleted   []string
	Failed    []SyncError
	DryRun    bool
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status        string            // "ok", "degraded", "error"
	Checks        map[string]string // component -> "ok"/"error"
	CorpusEntries int
}
