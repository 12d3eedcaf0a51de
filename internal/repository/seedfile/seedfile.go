// Package seedfile reads FAQ entries from a JSON seed file.
package seedfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// idNamespace seeds deterministic ids for entries that omit one.
var idNamespace = uuid.MustParse("6f1c3e52-9a0d-4f5e-8b8a-3f0f3c1f9a11")

const schema = `{
  "type": "object",
  "required": ["faqs"],
  "additionalProperties": false,
  "properties": {
    "faqs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "additionalProperties": false,
        "properties": {
          "id":       {"type": "string", "pattern": "^[a-zA-Z0-9_-]+$", "maxLength": 128},
          "question": {"type": "string", "minLength": 1},
          "answer":   {"type": "string", "minLength": 1},
          "tags": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

type fileDTO struct {
	FAQs []entryDTO `json:"faqs"`
}

type entryDTO struct {
	ID       string            `json:"id,omitempty"`
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// File is a seed file on disk. It implements the corpus and ingest source contract.
type File struct {
	path string
}

// New returns a seed file source.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// List reads, validates and parses the file.
func (f *File) List(_ context.Context) ([]domfaq.Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the seed schema and builds entries.
// Every schema violation is reported, joined into one ErrInvalidEntry error.
func Parse(data []byte) ([]domfaq.Entry, error) {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed seed JSON: %w", domain.ErrInvalidEntry, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidEntry, strings.Join(msgs, "; "))
	}

	var dto fileDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: decode seed JSON: %w", domain.ErrInvalidEntry, err)
	}

	entries := make([]domfaq.Entry, 0, len(dto.FAQs))
	seen := make(map[string]int, len(dto.FAQs))
	var errs []error
	for i, d := range dto.FAQs {
		id := d.ID
		if id == "" {
			id = DeriveID(d.Question)
		}
		if prev, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("faqs[%d]: duplicate id %q (first at faqs[%d])", i, id, prev))
			continue
		}
		seen[id] = i

		e, err := domfaq.New(id, d.Question, d.Answer, d.Tags)
		if err != nil {
			errs = append(errs, fmt.Errorf("faqs[%d]: %w", i, err))
			continue
		}
		entries = append(entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

// DeriveID returns a stable id for a question: the same text always maps to the same id.
func DeriveID(question string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.TrimSpace(question))).String()
}

// Encode renders entries in seed file format.
func Encode(entries []domfaq.Entry) ([]byte, error) {
	dto := fileDTO{FAQs: make([]entryDTO, 0, len(entries))}
	for _, e := range entries {
		dto.FAQs = append(dto.FAQs, entryDTO{
			ID:       e.ID(),
			Question: e.Question(),
			Answer:   e.Answer(),
			Tags:     e.Tags(),
		})
	}
	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode seed JSON: %w", err)
	}
	return data, nil
}
