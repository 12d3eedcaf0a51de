package db

// IndexBuilder assembles an IndexDefinition step by step.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix restricts the index to keys under prefix.
func (b *IndexBuilder) Prefix(prefix string) *IndexBuilder {
	b.def.Prefix = prefix
	return b
}

// Tag adds TAG fields.
func (b *IndexBuilder) Tag(names ...string) *IndexBuilder {
	b.def.Tags = append(b.def.Tags, names...)
	return b
}

// Vector sets the HNSW vector field. A zero Distance means cosine.
func (b *IndexBuilder) Vector(f VectorField) *IndexBuilder {
	if f.Distance == "" {
		f.Distance = DistanceCosine
	}
	b.def.Vector = f
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Tags = append([]string(nil), b.def.Tags...)
	return &def, nil
}
