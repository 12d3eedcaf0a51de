package faq

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/kailas-cloud/faqdex/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Size limits for FAQ fields in bytes.
const (
	MaxIDLength       = 128
	MaxQuestionLength = 4096
	MaxAnswerLength   = 65536
)

// Entry is a curated question/answer pair (immutable value object).
type Entry struct {
	id       string
	question string
	answer   string
	tags     map[string]string
	vector   []float32
}

// New validates and creates an Entry.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. Question and answer must be non-blank.
func New(id, question, answer string, tags map[string]string) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("%w: id is required", domain.ErrInvalidEntry)
	}
	if len(id) > MaxIDLength {
		return Entry{}, fmt.Errorf("%w: id too long (max %d)", domain.ErrInvalidEntry, MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Entry{}, fmt.Errorf("%w: id must be alphanumeric with underscores and hyphens", domain.ErrInvalidEntry)
	}
	if strings.TrimSpace(question) == "" {
		return Entry{}, fmt.Errorf("%w: question is required", domain.ErrInvalidEntry)
	}
	if len(question) > MaxQuestionLength {
		return Entry{}, fmt.Errorf("%w: question too large (max %d bytes)", domain.ErrInvalidEntry, MaxQuestionLength)
	}
	if strings.TrimSpace(answer) == "" {
		return Entry{}, fmt.Errorf("%w: answer is required", domain.ErrInvalidEntry)
	}
	if len(answer) > MaxAnswerLength {
		return Entry{}, fmt.Errorf("%w: answer too large (max %d bytes)", domain.ErrInvalidEntry, MaxAnswerLength)
	}

	return Entry{
		id:       id,
		question: question,
		answer:   answer,
		tags:     maps.Clone(tags),
	}, nil
}

// Reconstruct creates an Entry without validation (storage hydration).
func Reconstruct(id, question, answer string, tags map[string]string, vector []float32) Entry {
	return Entry{id: id, question: question, answer: answer, tags: tags, vector: vector}
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Question returns the canonical question text.
func (e Entry) Question() string { return e.question }

// Answer returns the answer text.
func (e Entry) Answer() string { return e.answer }

// Tags returns the metadata tags.
func (e Entry) Tags() map[string]string { return e.tags }

// Vector returns the stored embedding, nil when not yet embedded.
func (e Entry) Vector() []float32 { return e.vector }

// WithVector returns a copy with the given vector set.
func (e Entry) WithVector(v []float32) Entry {
	e.vector = v
	return e
}

// EmbeddingText is the text embedded for the entry.
func (e Entry) EmbeddingText() string {
	return e.question + "\n" + e.answer
}

// ContentHash fingerprints the embedded text so unchanged entries can skip re-embedding.
func (e Entry) ContentHash() string {
	h := sha256.Sum256([]byte(e.EmbeddingText()))
	return hex.EncodeToString(h[:])
}
