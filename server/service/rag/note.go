package rag

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/plugin/ai/vector"
	apperrors "github.com/hrygo/noterag/server/internal/errors"
	"github.com/hrygo/noterag/server/workflow"
	"github.com/hrygo/noterag/store"
)

const (
	// DefaultListLimit is the page size of ListNotes when none is given.
	DefaultListLimit = 50
	// MaxListLimit caps the page size of ListNotes.
	MaxListLimit = 500
)

// NoteService manages notes across the store and the vector index.
type NoteService struct {
	store  *store.Store
	index  vector.VectorIndex
	engine *workflow.Engine
	// notify wakes the ingestion runner; may be nil.
	notify func()
}

// NewNoteService creates a NoteService. notify is called after every queued ingestion.
func NewNoteService(s *store.Store, index vector.VectorIndex, engine *workflow.Engine, notify func()) *NoteService {
	return &NoteService{
		store:  s,
		index:  index,
		engine: engine,
		notify: notify,
	}
}

// CreateNote queues an ingestion of text and returns the workflow instance.
func (s *NoteService) CreateNote(ctx context.Context, text string) (*store.WorkflowInstance, error) {
	if text == "" {
		return nil, apperrors.InvalidArgument("Missing text")
	}
	instance, err := s.engine.Create(ctx, IngestWorkflowName, IngestParams{Text: text})
	if err != nil {
		return nil, apperrors.Internal("failed to queue note ingestion", err)
	}
	if s.notify != nil {
		s.notify()
	}
	return instance, nil
}

// GetNote returns the note with id, or a NOT_FOUND error.
func (s *NoteService) GetNote(ctx context.Context, id int32) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, &store.FindNote{ID: &id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperrors.NotFound("note not found")
	}
	return note, nil
}

// ListNotes returns notes newest first.
func (s *NoteService) ListNotes(ctx context.Context, limit, offset int) ([]*store.Note, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListNotes(ctx, &store.FindNote{Limit: &limit, Offset: &offset})
}

// DeleteNote removes the note row and its vector. Unknown ids are not an error.
func (s *NoteService) DeleteNote(ctx context.Context, id int32) error {
	if err := s.store.DeleteNote(ctx, &store.DeleteNote{ID: id}); err != nil {
		return errors.Wrapf(err, "failed to delete note %d", id)
	}
	if err := s.index.DeleteByIDs(ctx, []string{strconv.FormatInt(int64(id), 10)}); err != nil {
		return apperrors.ServiceUnavailable("failed to delete note vector", err)
	}
	return nil
}

// GetWorkflow returns an ingestion instance and its journaled steps.
func (s *NoteService) GetWorkflow(ctx context.Context, id string) (*store.WorkflowInstance, []*store.WorkflowStep, error) {
	instance, err := s.store.GetWorkflowInstance(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if instance == nil {
		return nil, nil, apperrors.NotFound("workflow not found")
	}
	steps, err := s.store.ListWorkflowSteps(ctx, &store.FindWorkflowStep{InstanceID: id})
	if err != nil {
		return nil, nil, err
	}
	return instance, steps, nil
}
