package store

import (
	"context"
)

// Note is a single chunk of user text that has been (or is being) indexed.
type Note struct {
	ID        int32
	Text      string
	CreatedTs int64
}

type FindNote struct {
	ID     *int32
	IDList []int32

	// Pagination
	Limit  *int
	Offset *int
}

type DeleteNote struct {
	ID int32
}

func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	return s.driver.CreateNote(ctx, create)
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the note matching find, or nil when none exists.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	list, err := s.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	return s.driver.DeleteNote(ctx, delete)
}
