package retrieval

import (
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
	"github.com/kailas-cloud/faqdex/internal/domain/search/tier"
)

// Attempt is the ranking one tier produced during a cascade run.
type Attempt struct {
	Tier    tier.Tier
	Ranking match.Ranking
}

// Relax re-examines rankings already computed by earlier tiers against the emergency bar.
// It picks the attempt with the highest top score; on a tie the earlier tier wins.
// ok is false when no attempt has a top score >= emergency.
func Relax(attempts []Attempt, emergency float64) (best Attempt, ok bool) {
	found := false
	for _, a := range attempts {
		if _, has := a.Ranking.Top(); !has {
			continue
		}
		if !found || a.Ranking.TopScore() > best.Ranking.TopScore() {
			best = a
			found = true
		}
	}
	if !found || best.Ranking.TopScore() < emergency {
		return Attempt{}, false
	}
	return best, true
}

// bestScore returns the highest top score across attempts, 0 when none produced matches.
func bestScore(attempts []Attempt) float64 {
	var best float64
	for _, a := range attempts {
		best = max(best, a.Ranking.TopScore())
	}
	return best
}
