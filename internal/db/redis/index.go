package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// CreateIndex runs FT.CREATE ... ON HASH for the definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Key: def.Name, Err: err}
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(createArgs(def)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Key: def.Name, Err: err}
	}
	return nil
}

// DropIndex runs FT.DROPINDEX without DD, so the FAQ hashes survive.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Key: name, Err: err}
	}
	return nil
}

// IndexExists probes with FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Key: name, Err: err}
	}
	return true, nil
}

// createArgs renders the arguments after FT.CREATE, e.g.
//
//	idx ON HASH PREFIX 1 faq: SCHEMA category TAG embedding AS vector
//	  VECTOR HNSW 10 TYPE FLOAT32 DIM 384 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200
func createArgs(def *db.IndexDefinition) []string {
	args := []string{def.Name, "ON", "HASH"}
	if def.Prefix != "" {
		args = append(args, "PREFIX", "1", def.Prefix)
	}

	args = append(args, "SCHEMA")
	for _, t := range def.Tags {
		args = append(args, t, "TAG")
	}
	return append(args, vectorArgs(def.Vector)...)
}

func vectorArgs(f db.VectorField) []string {
	distance := f.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if f.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.M))
	}
	if f.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruct))
	}

	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}
	args = append(args, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(args, attrs...)
}
