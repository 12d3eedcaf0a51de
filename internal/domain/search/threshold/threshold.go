package threshold

import (
	"fmt"

	"github.com/kailas-cloud/faqdex/internal/domain"
)

// Default cascade thresholds on the shared [0, 1] confidence scale.
const (
	DefaultVector    = 0.5
	DefaultLexical   = 0.3
	DefaultEmergency = 0.1
)

// Thresholds holds the per-tier acceptance bars. Immutable after construction.
type Thresholds struct {
	vector    float64
	lexical   float64
	emergency float64
}

// New validates and creates Thresholds.
// Each value must be in [0, 1] and vector >= lexical >= emergency.
func New(vector, lexical, emergency float64) (Thresholds, error) {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"vector", vector},
		{"lexical", lexical},
		{"emergency", emergency},
	} {
		if !(v.val >= 0 && v.val <= 1) {
			return Thresholds{}, fmt.Errorf("%w: %s threshold %v outside [0, 1]", domain.ErrConfiguration, v.name, v.val)
		}
	}
	if vector < lexical {
		return Thresholds{}, fmt.Errorf("%w: vector threshold %v below lexical threshold %v",
			domain.ErrConfiguration, vector, lexical)
	}
	if lexical < emergency {
		return Thresholds{}, fmt.Errorf("%w: lexical threshold %v below emergency threshold %v",
			domain.ErrConfiguration, lexical, emergency)
	}
	return Thresholds{vector: vector, lexical: lexical, emergency: emergency}, nil
}

// Default returns the 0.5 / 0.3 / 0.1 thresholds.
func Default() Thresholds {
	return Thresholds{vector: DefaultVector, lexical: DefaultLexical, emergency: DefaultEmergency}
}

// Vector returns the primary (vector tier) threshold.
func (t Thresholds) Vector() float64 { return t.vector }

// Lexical returns the secondary (lexical tier) threshold.
func (t Thresholds) Lexical() float64 { return t.lexical }

// Emergency returns the tertiary (relaxation) threshold.
func (t Thresholds) Emergency() float64 { return t.emergency }
