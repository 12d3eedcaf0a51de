package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance, 1 - cos.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceIP is inner product distance, 1 - dot.
	DistanceIP DistanceMetric = "IP"
	// DistanceL2 is squared Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
)

// VectorField is the single HNSW vector attribute of an index.
type VectorField struct {
	Name        string // hash field holding the FLOAT32 blob
	Alias       string // name KNN queries address, defaults to Name
	Dim         int
	Distance    DistanceMetric
	M           int // max edges per node, server default when zero
	EFConstruct int // build-time candidate list size, server default when zero
}

// Ref is the name used in "=>[KNN k @ref $BLOB]".
func (f VectorField) Ref() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is a HASH-backed FT index over one key prefix:
// any number of TAG fields and exactly one vector field.
type IndexDefinition struct {
	Name   string
	Prefix string
	Tags   []string
	Vector VectorField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if idx.Vector.Name == "" {
		return errors.New("vector field name is required")
	}
	if idx.Vector.Dim <= 0 {
		return errors.New("vector field requires positive DIM")
	}

	seen := map[string]bool{idx.Vector.Ref(): true}
	for _, t := range idx.Tags {
		if t == "" {
			return errors.New("tag field name is required")
		}
		if seen[t] {
			return errors.New("duplicate field name: " + t)
		}
		seen[t] = true
	}
	return nil
}

// String renders the definition as the FT.CREATE command it maps to.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name, "ON", "HASH"}
	if idx.Prefix != "" {
		parts = append(parts, "PREFIX", "1", idx.Prefix)
	}
	parts = append(parts, "SCHEMA")
	for _, t := range idx.Tags {
		parts = append(parts, t, "TAG")
	}
	v := idx.Vector
	parts = append(parts, v.Name)
	if v.Alias != "" {
		parts = append(parts, "AS", v.Alias)
	}
	parts = append(parts, "VECTOR", "HNSW", fmt.Sprintf("DIM=%d", v.Dim), "METRIC="+string(v.Distance))
	if v.M > 0 {
		parts = append(parts, "M="+strconv.Itoa(v.M))
	}
	return strings.Join(parts, " ")
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
