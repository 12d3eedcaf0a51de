package match

// Ranking is the result of one tier: either a ranked list or a failure.
// A failed ranking is a miss for the cascade, never an error to the caller.
type Ranking struct {
	matches []Match
	err     error
}

// Ranked creates a successful ranking. Matches are copied and sorted.
func Ranked(ms []Match) Ranking {
	out := make([]Match, len(ms))
	copy(out, ms)
	Sort(out)
	return Ranking{matches: out}
}

// Failed creates a ranking for an unavailable tier.
func Failed(err error) Ranking {
	return Ranking{err: err}
}

// Matches returns the ranked list, empty when failed.
func (r Ranking) Matches() []Match { return r.matches }

// Err returns the failure cause, nil on success.
func (r Ranking) Err() error { return r.err }

// Failed reports whether the tier was unavailable.
func (r Ranking) Failed() bool { return r.err != nil }

// Top returns the best match.
func (r Ranking) Top() (Match, bool) {
	if len(r.matches) == 0 {
		return Match{}, false
	}
	return r.matches[0], true
}

// TopScore returns the best score, 0 when empty or failed.
func (r Ranking) TopScore() float64 {
	if m, ok := r.Top(); ok {
		return m.score
	}
	return 0
}

// Truncate returns at most n matches.
func (r Ranking) Truncate(n int) Ranking {
	if n < 0 || len(r.matches) <= n {
		return r
	}
	return Ranking{matches: r.matches[:n], err: r.err}
}
