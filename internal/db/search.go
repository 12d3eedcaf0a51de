package db

import "errors"

// DefaultVectorRef is the KNN field reference used when a query names none.
const DefaultVectorRef = "vector"

// KNNQuery asks for the K hashes nearest to Vector in an index.
type KNNQuery struct {
	IndexName    string
	Field        string // vector field reference, DefaultVectorRef when empty
	Vector       []float32
	K            int
	ReturnFields []string
}

// Ref returns the vector field reference the query targets.
func (q *KNNQuery) Ref() string {
	if q.Field == "" {
		return DefaultVectorRef
	}
	return q.Field
}

// ScoreField is the pseudo-field FT.SEARCH fills with the raw distance.
func (q *KNNQuery) ScoreField() string {
	return "__" + q.Ref() + "_score"
}

// Validate rejects queries no backend can run.
func (q *KNNQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return errors.New("index name is required")
	case len(q.Vector) == 0:
		return errors.New("query vector is required")
	case q.K <= 0:
		return errors.New("k must be positive")
	}
	return nil
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one KNN hit. Score is similarity, 1 - distance, so for
// cosine it lies in [-1, 1]; callers clamp as they need.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
