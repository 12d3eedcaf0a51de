package tier

// Tier identifies which stage of the retrieval cascade produced an answer.
type Tier string

// Cascade tiers in evaluation order.
const (
	Vector    Tier = "vector"
	Lexical   Tier = "lexical"
	Emergency Tier = "emergency"
	// None means no tier produced an acceptable match.
	None Tier = "none"
)

// IsValid checks if the tier is one of the supported values.
func (t Tier) IsValid() bool {
	return t == Vector || t == Lexical || t == Emergency || t == None
}

// String implements fmt.Stringer.
func (t Tier) String() string { return string(t) }
