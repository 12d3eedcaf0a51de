package faq

import (
	"slices"
	"strings"
)

// Snapshot is an immutable, id-sorted view of the FAQ corpus.
// Readers share a snapshot freely; reloads build a new one.
type Snapshot struct {
	version uint64
	entries []Entry
	byID    map[string]int
}

// NewSnapshot builds a snapshot from entries. Later duplicates of an id win.
func NewSnapshot(version uint64, entries []Entry) *Snapshot {
	dedup := make(map[string]Entry, len(entries))
	for _, e := range entries {
		dedup[e.ID()] = e
	}

	sorted := make([]Entry, 0, len(dedup))
	for _, e := range dedup {
		sorted = append(sorted, e)
	}
	slices.SortFunc(sorted, func(a, b Entry) int { return strings.Compare(a.ID(), b.ID()) })

	byID := make(map[string]int, len(sorted))
	for i, e := range sorted {
		byID[e.ID()] = i
	}

	return &Snapshot{version: version, entries: sorted, byID: byID}
}

// Version identifies the snapshot generation. Strictly increasing across reloads.
func (s *Snapshot) Version() uint64 { return s.version }

// Entries returns all entries ordered by id. Callers must not mutate the slice.
func (s *Snapshot) Entries() []Entry { return s.entries }

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// Get returns the entry with the given id.
func (s *Snapshot) Get(id string) (Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}
