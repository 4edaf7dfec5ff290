// Package vector provides the vector index used to store and retrieve note embeddings.
package vector

import (
	"context"
)

// VectorIndex stores embeddings by id and answers nearest-neighbour queries.
type VectorIndex interface {
	// Upsert inserts or replaces vectors by id.
	Upsert(ctx context.Context, vectors []Vector) error

	// Query returns up to topK matches ordered by descending score.
	Query(ctx context.Context, values []float32, topK int) ([]Match, error)

	// DeleteByIDs removes vectors. Unknown ids are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error

	Close() error
}

// Vector is an embedding keyed by the id of the note it represents.
type Vector struct {
	ID     string    `json:"id"`
	Values []float32 `json:"values"`
}

// Match is a query result.
type Match struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"` // cosine similarity, higher is more similar
}
