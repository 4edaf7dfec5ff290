package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/store"
)

// SQLite has no pgvector equivalent. Use the memory or qdrant vector driver.
var ErrVectorNotSupported = errors.New("note embedding storage requires PostgreSQL with pgvector extension")

func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	return nil, ErrVectorNotSupported
}

// DeleteNoteEmbeddings succeeds so note deletion keeps working.
func (d *DB) DeleteNoteEmbeddings(ctx context.Context, noteIDs []int32) error {
	return nil
}

func (d *DB) SearchNoteEmbeddings(ctx context.Context, search *store.NoteEmbeddingSearch) ([]*store.NoteWithScore, error) {
	return nil, ErrVectorNotSupported
}
