package vector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/internal/profile"
	"github.com/hrygo/noterag/store"
)

// NewVectorIndex creates the vector index selected by profile.VectorDriver.
func NewVectorIndex(ctx context.Context, p *profile.Profile, s *store.Store) (VectorIndex, error) {
	switch p.VectorDriver {
	case "pgvector":
		return NewPGVectorIndex(s, p.AIEmbeddingModel), nil
	case "qdrant":
		index, err := NewQdrantIndex(ctx, QdrantConfig{
			Host:       p.QdrantHost,
			Port:       p.QdrantPort,
			APIKey:     p.QdrantAPIKey,
			Collection: p.QdrantCollection,
			Dimensions: p.AIEmbeddingDimensions,
		})
		if err != nil {
			return nil, err
		}
		return index, nil
	case "memory", "":
		return NewMemoryIndex(), nil
	default:
		return nil, errors.Errorf("unknown vector driver: %s", p.VectorDriver)
	}
}
