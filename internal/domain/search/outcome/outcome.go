package outcome

import (
	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/tier"
)

// Reasons attached to a no-match outcome.
const (
	ReasonInvalidQuery   = "invalid_query"
	ReasonBelowThreshold = "below_threshold"
	ReasonEmptyCorpus    = "empty_corpus"
)

// Hit is an FAQ entry with the confidence assigned by the producing tier.
type Hit struct {
	entry faq.Entry
	score float64
}

// NewHit creates a Hit.
func NewHit(entry faq.Entry, score float64) Hit {
	return Hit{entry: entry, score: score}
}

// Entry returns the matched FAQ entry.
func (h Hit) Entry() faq.Entry { return h.entry }

// Score returns the confidence in [0, 1].
func (h Hit) Score() float64 { return h.score }

// Outcome is the result of one cascade run.
// Exactly one tier is reported; hits never mix scores from different tiers.
type Outcome struct {
	tier       tier.Tier
	sourceTier tier.Tier
	hits       []Hit
	bestScore  float64
	reason     string
}

// Matched creates an outcome for a tier that cleared its threshold.
func Matched(t tier.Tier, hits []Hit) Outcome {
	return Outcome{tier: t, sourceTier: t, hits: hits, bestScore: topScore(hits)}
}

// Relaxed creates an emergency outcome built from the ranked list of source.
func Relaxed(source tier.Tier, hits []Hit) Outcome {
	return Outcome{tier: tier.Emergency, sourceTier: source, hits: hits, bestScore: topScore(hits)}
}

// NoMatch creates an outcome for a query no tier could answer.
// bestScore is the highest confidence seen across tiers, for diagnostics.
func NoMatch(reason string, bestScore float64) Outcome {
	return Outcome{tier: tier.None, sourceTier: tier.None, bestScore: bestScore, reason: reason}
}

// Tier returns the tier that produced the outcome.
func (o Outcome) Tier() tier.Tier { return o.tier }

// SourceTier returns the tier whose ranking was used. Differs from Tier only for emergency outcomes.
func (o Outcome) SourceTier() tier.Tier { return o.sourceTier }

// Hits returns the ranked hits, empty for no match.
func (o Outcome) Hits() []Hit { return o.hits }

// BestScore returns the top confidence.
func (o Outcome) BestScore() float64 { return o.bestScore }

// Reason returns the diagnostic reason for a no-match outcome.
func (o Outcome) Reason() string { return o.reason }

// IsMatch reports whether any tier produced an answer.
func (o Outcome) IsMatch() bool { return o.tier != tier.None }

func topScore(hits []Hit) float64 {
	if len(hits) == 0 {
		return 0
	}
	return hits[0].score
}
