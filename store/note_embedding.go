package store

import "context"

// NoteEmbedding represents the vector embedding of a note.
// Only the postgres driver stores embeddings, using the pgvector extension.
type NoteEmbedding struct {
	NoteID    int32
	Embedding []float32
	Model     string // Model identifier, e.g., "BAAI/bge-m3"
	CreatedTs int64
	UpdatedTs int64
}

// NoteWithScore represents a vector search result with similarity score.
type NoteWithScore struct {
	NoteID int32
	Score  float32 // Cosine similarity, higher is more similar
}

// NoteEmbeddingSearch represents the options for vector search.
type NoteEmbeddingSearch struct {
	Vector []float32
	Model  string
	Limit  int // Number of results to return, default 10
}

// UpsertNoteEmbedding inserts or updates a note embedding.
func (s *Store) UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error) {
	return s.driver.UpsertNoteEmbedding(ctx, embedding)
}

// DeleteNoteEmbeddings deletes the embeddings of the given notes. Missing ids are ignored.
func (s *Store) DeleteNoteEmbeddings(ctx context.Context, noteIDs []int32) error {
	if len(noteIDs) == 0 {
		return nil
	}
	return s.driver.DeleteNoteEmbeddings(ctx, noteIDs)
}

// SearchNoteEmbeddings performs vector similarity search.
func (s *Store) SearchNoteEmbeddings(ctx context.Context, search *NoteEmbeddingSearch) ([]*NoteWithScore, error) {
	return s.driver.SearchNoteEmbeddings(ctx, search)
}
