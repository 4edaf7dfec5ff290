package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Note model related methods.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// NoteEmbedding model related methods.
	UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error)
	DeleteNoteEmbeddings(ctx context.Context, noteIDs []int32) error
	SearchNoteEmbeddings(ctx context.Context, search *NoteEmbeddingSearch) ([]*NoteWithScore, error)

	// Workflow model related methods.
	CreateWorkflowInstance(ctx context.Context, create *WorkflowInstance) (*WorkflowInstance, error)
	ListWorkflowInstances(ctx context.Context, find *FindWorkflowInstance) ([]*WorkflowInstance, error)
	UpdateWorkflowInstance(ctx context.Context, update *UpdateWorkflowInstance) error
	UpsertWorkflowStep(ctx context.Context, upsert *WorkflowStep) (*WorkflowStep, error)
	ListWorkflowSteps(ctx context.Context, find *FindWorkflowStep) ([]*WorkflowStep, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error)
}
