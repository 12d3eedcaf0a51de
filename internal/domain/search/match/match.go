package match

import (
	"cmp"
	"slices"
)

// Match is a single scored FAQ reference produced by one tier.
type Match struct {
	id    string
	score float64
}

// New creates a Match. Score is clamped to [0, 1].
func New(id string, score float64) Match {
	return Match{id: id, score: Confidence(score)}
}

// ID returns the FAQ entry id.
func (m Match) ID() string { return m.id }

// Score returns the confidence in [0, 1].
func (m Match) Score() float64 { return m.score }

// Confidence maps a raw similarity to [0, 1]: negatives and NaN become 0, values above 1 become 1.
func Confidence(s float64) float64 {
	if !(s > 0) {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Sort orders matches by score descending, ties by id ascending.
func Sort(ms []Match) {
	slices.SortStableFunc(ms, func(a, b Match) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
}
