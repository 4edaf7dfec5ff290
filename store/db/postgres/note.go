package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	stmt := `INSERT INTO note (text) VALUES (` + placeholder(1) + `) RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.Text).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.IDList) > 0 {
		holders := []string{}
		for _, id := range find.IDList {
			args = append(args, id)
			holders = append(holders, placeholder(len(args)))
		}
		where = append(where, "id IN ("+strings.Join(holders, ", ")+")")
	}

	query := `SELECT id, text, created_ts FROM note WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		var note store.Note
		if err := rows.Scan(&note.ID, &note.Text, &note.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		list = append(list, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteNote removes the note row. Deleting a missing note is not an error.
func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM note WHERE id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	return nil
}
