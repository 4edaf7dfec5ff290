package vector

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/store"
)

// PGVectorIndex keeps embeddings in the note_embedding table next to the notes.
// Vector ids must be note ids.
type PGVectorIndex struct {
	store *store.Store
	model string
}

func NewPGVectorIndex(s *store.Store, model string) *PGVectorIndex {
	return &PGVectorIndex{store: s, model: model}
}

func (p *PGVectorIndex) Upsert(ctx context.Context, vectors []Vector) error {
	for _, v := range vectors {
		noteID, err := parseNoteID(v.ID)
		if err != nil {
			return err
		}
		if _, err := p.store.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
			NoteID:    noteID,
			Embedding: v.Values,
			Model:     p.model,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *PGVectorIndex) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}
	results, err := p.store.SearchNoteEmbeddings(ctx, &store.NoteEmbeddingSearch{
		Vector: values,
		Model:  p.model,
		Limit:  topK,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{ID: strconv.Itoa(int(r.NoteID)), Score: r.Score})
	}
	return matches, nil
}

func (p *PGVectorIndex) DeleteByIDs(ctx context.Context, ids []string) error {
	noteIDs := make([]int32, 0, len(ids))
	for _, id := range ids {
		noteID, err := parseNoteID(id)
		if err != nil {
			return err
		}
		noteIDs = append(noteIDs, noteID)
	}
	return p.store.DeleteNoteEmbeddings(ctx, noteIDs)
}

// Close is a no-op; the store owns the connection.
func (*PGVectorIndex) Close() error {
	return nil
}

func parseNoteID(id string) (int32, error) {
	n, err := strconv.ParseInt(id, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid note id %q", id)
	}
	return int32(n), nil
}
