package lexical

import (
	"fmt"
	"strings"
)

// Mode selects the n-gram unit.
type Mode string

// N-gram modes.
const (
	ModeChar Mode = "char"
	ModeWord Mode = "word"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeChar, ModeWord:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown n-gram mode %q", s)
	}
}

// gramSet is the set of distinct n-grams of a text.
type gramSet map[string]struct{}

// grams extracts the distinct n-grams of normalized tokens.
// Char grams are taken per token with a space on each side so that word boundaries count.
// Inputs shorter than n contribute themselves as a single gram.
func grams(tokens []string, n int, mode Mode) gramSet {
	set := make(gramSet)
	if len(tokens) == 0 || n <= 0 {
		return set
	}

	if mode == ModeWord {
		if len(tokens) < n {
			set[strings.Join(tokens, " ")] = struct{}{}
			return set
		}
		for i := 0; i+n <= len(tokens); i++ {
			set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
		}
		return set
	}

	for _, tok := range tokens {
		padded := []rune(" " + tok + " ")
		if len(padded) <= n {
			set[string(padded)] = struct{}{}
			continue
		}
		for i := 0; i+n <= len(padded); i++ {
			set[string(padded[i:i+n])] = struct{}{}
		}
	}
	return set
}

func intersect(a, b gramSet) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for g := range a {
		if _, ok := b[g]; ok {
			n++
		}
	}
	return n
}

// dice is the Sørensen-Dice coefficient 2|A∩B| / (|A|+|B|), 0 when both are empty.
func dice(a, b gramSet) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(intersect(a, b)) / float64(total)
}

// containment is the share of q found in doc, |Q∩D| / |Q|, 0 when q is empty.
func containment(q, doc gramSet) float64 {
	if len(q) == 0 {
		return 0
	}
	return float64(intersect(q, doc)) / float64(len(q))
}
