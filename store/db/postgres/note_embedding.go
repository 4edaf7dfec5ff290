package postgres

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/noterag/store"
)

// UpsertNoteEmbedding inserts or updates a note embedding.
func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	stmt := `
		INSERT INTO note_embedding (note_id, embedding, model)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (note_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			updated_ts = EXTRACT(EPOCH FROM NOW())
		RETURNING created_ts, updated_ts
	`

	vector := pgvector.NewVector(embedding.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		embedding.NoteID,
		vector,
		embedding.Model,
	).Scan(&embedding.CreatedTs, &embedding.UpdatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert note embedding")
	}
	return embedding, nil
}

// DeleteNoteEmbeddings deletes the embeddings of the given notes.
func (d *DB) DeleteNoteEmbeddings(ctx context.Context, noteIDs []int32) error {
	holders, args := []string{}, []any{}
	for _, id := range noteIDs {
		args = append(args, id)
		holders = append(holders, placeholder(len(args)))
	}
	stmt := `DELETE FROM note_embedding WHERE note_id IN (` + strings.Join(holders, ", ") + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to delete note embeddings")
	}
	return nil
}

// SearchNoteEmbeddings performs vector similarity search using pgvector.
func (d *DB) SearchNoteEmbeddings(ctx context.Context, search *store.NoteEmbeddingSearch) ([]*store.NoteWithScore, error) {
	limit := search.Limit
	if limit <= 0 {
		limit = 10
	}

	// The <=> operator computes cosine distance (1 - cosine_similarity),
	// so ordering by distance ASC returns the most similar first.
	where, args := []string{"1 = 1"}, []any{pgvector.NewVector(search.Vector)}
	if search.Model != "" {
		where, args = append(where, "e.model = "+placeholder(len(args)+1)), append(args, search.Model)
	}
	args = append(args, limit)
	query := `
		SELECT e.note_id, 1 - (e.embedding <=> ` + placeholder(1) + `) AS score
		FROM note_embedding e
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.embedding <=> ` + placeholder(1) + `
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	results := []*store.NoteWithScore{}
	for rows.Next() {
		var result store.NoteWithScore
		if err := rows.Scan(&result.NoteID, &result.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
