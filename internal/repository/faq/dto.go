package faq

import (
	"encoding/json"

	"github.com/kailas-cloud/faqdex/internal/db"
	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// Hash field names of a stored FAQ entry.
const (
	fieldQuestion = "question"
	fieldAnswer   = "answer"
	fieldTags     = "tags"
	fieldCategory = "category"
	fieldVector   = "__vector"
)

// buildHashFields converts a domain Entry into a flat map[string]string for HSET.
func buildHashFields(e domfaq.Entry) (map[string]string, error) {
	m := map[string]string{
		fieldQuestion: e.Question(),
		fieldAnswer:   e.Answer(),
	}
	if len(e.Tags()) > 0 {
		tags, err := json.Marshal(e.Tags())
		if err != nil {
			return nil, err //nolint:wrapcheck // caller wraps with entry id
		}
		m[fieldTags] = string(tags)
		if c := e.Tags()["category"]; c != "" {
			m[fieldCategory] = c
		}
	}
	if e.Vector() != nil {
		m[fieldVector] = string(db.VectorToBytes(e.Vector()))
	}
	return m, nil
}

// parseHashFields converts a flat hash map back into a domain Entry.
// Malformed tags or vectors are dropped rather than failing the whole corpus.
func parseHashFields(id string, m map[string]string) domfaq.Entry {
	var tags map[string]string
	if raw := m[fieldTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			tags = nil
		}
	}

	var vector []float32
	if raw := m[fieldVector]; raw != "" {
		if v, err := db.BytesToVector([]byte(raw)); err == nil {
			vector = v
		}
	}

	return domfaq.Reconstruct(id, m[fieldQuestion], m[fieldAnswer], tags, vector)
}
