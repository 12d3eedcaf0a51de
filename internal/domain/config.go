package domain

// VectorConfig holds the default embedding model settings.
type VectorConfig struct {
	Model      string
	Dimensions int
}

// DefaultVectorConfig returns the default configuration tuned for all-MiniLM-L6-v2.
// Vectors are compared by cosine similarity.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "all-MiniLM-L6-v2",
		Dimensions: 384,
	}
}
