package vector

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks an unreachable vector backend (health check or
	// transport failure).
	ErrUnavailable = errors.New("vector index unavailable")
	// ErrIndexWrite marks a failed upsert or delete, wrapping the cause.
	ErrIndexWrite = errors.New("vector index write failed")
	// ErrIndexQuery marks a failed similarity query, wrapping the cause.
	ErrIndexQuery = errors.New("vector index query failed")
)

// ChunkMeta is stored alongside each vector so a similarity hit can be mapped
// back to its chunk and document without a relational lookup.
type ChunkMeta struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	PageStart  int    `json:"page_start"`
	PageEnd    int    `json:"page_end"`
}

// QueryResult holds similarity hits ranked ascending by distance
// (lower = more similar). The slices are index-aligned; Documents carries the
// stored chunk texts.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metas     []ChunkMeta
	Distances []float64
}

// Index persists chunk vectors and answers nearest-neighbor queries. Callers
// gate expensive operations on HealthCheck; implementations do not retry.
type Index interface {
	HealthCheck(ctx context.Context) error
	Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metas []ChunkMeta) error
	Query(ctx context.Context, vec []float32, limit int, documentID string) (*QueryResult, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
