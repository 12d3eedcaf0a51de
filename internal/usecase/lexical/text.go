package lexical

import (
	"strings"
	"unicode"
)

// Stop words dropped before n-gram extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "i": true, "my": true, "me": true, "can": true,
	"how": true, "what": true, "does": true, "or": true, "your": true, "we": true,
}

// Tokenize lowercases text and splits it on every rune that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Normalize tokenizes text and removes stop words.
func Normalize(text string) []string {
	tokens := Tokenize(text)
	filtered := tokens[:0]
	for _, t := range tokens {
		if !stopWords[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
