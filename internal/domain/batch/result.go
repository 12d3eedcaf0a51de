// Package batch holds per-entry outcomes of a corpus sync.
package batch

import (
	"errors"
	"fmt"
)

// ItemStatus says what a sync did with one entry.
type ItemStatus string

// Sync outcomes.
const (
	StatusUpserted  ItemStatus = "upserted"
	StatusUnchanged ItemStatus = "unchanged"
	StatusPruned    ItemStatus = "pruned"
	StatusFailed    ItemStatus = "failed"
)

// Result is the outcome for one entry id.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// Upserted records an entry written to the store.
func Upserted(id string) Result { return Result{id: id, status: StatusUpserted} }

// Unchanged records an entry whose stored text already matched.
func Unchanged(id string) Result { return Result{id: id, status: StatusUnchanged} }

// Pruned records a stored entry removed because the input no longer has it.
func Pruned(id string) Result { return Result{id: id, status: StatusPruned} }

// Failed records an entry that could not be synced.
func Failed(id string, err error) Result { return Result{id: id, status: StatusFailed, err: err} }

// ID returns the entry id.
func (r Result) ID() string { return r.id }

// Status returns the outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err is non-nil only for StatusFailed.
func (r Result) Err() error { return r.err }

// Tally counts results by outcome.
type Tally struct {
	Upserted  int
	Unchanged int
	Pruned    int
	Failed    int
}

// Total is the number of results counted.
func (t Tally) Total() int { return t.Upserted + t.Unchanged + t.Pruned + t.Failed }

// Count returns the tally for one status.
func (t Tally) Count(s ItemStatus) int {
	switch s {
	case StatusUpserted:
		return t.Upserted
	case StatusUnchanged:
		return t.Unchanged
	case StatusPruned:
		return t.Pruned
	case StatusFailed:
		return t.Failed
	}
	return 0
}

// Summarize tallies results.
func Summarize(results []Result) Tally {
	var t Tally
	for _, r := range results {
		switch r.status {
		case StatusUpserted:
			t.Upserted++
		case StatusUnchanged:
			t.Unchanged++
		case StatusPruned:
			t.Pruned++
		case StatusFailed:
			t.Failed++
		}
	}
	return t
}

// Join wraps every failure with its id, nil when nothing failed.
func Join(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.id, r.err))
		}
	}
	return errors.Join(errs...)
}
