package rag

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/noterag/plugin/ai/vector"
	"github.com/hrygo/noterag/server/workflow"
	"github.com/hrygo/noterag/store"
	teststore "github.com/hrygo/noterag/store/test"
)

func newTestEngine(ts *store.Store, w workflow.Workflow) *workflow.Engine {
	engine := workflow.NewEngine(ts, workflow.Config{RetryLimit: 1, RetryDelay: time.Millisecond, StepTimeout: time.Second})
	engine.Register(IngestWorkflowName, w)
	return engine
}

func TestIngestWorkflow(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	index := vector.NewMemoryIndex()
	embedding := &fakeEmbedding{vectors: map[string][]float32{
		"first chunk":  {1, 0, 0},
		"second chunk": {0, 1, 0},
	}}
	w := NewIngestWorkflow(ts, fixedSplitter{chunks: []string{"first chunk", "second chunk"}}, embedding, index)
	engine := newTestEngine(ts, w)

	instance, err := engine.Create(ctx, IngestWorkflowName, IngestParams{Text: "first chunk\n\nsecond chunk"})
	require.NoError(t, err)
	require.NoError(t, engine.Run(ctx, instance.ID))

	notes, err := ts.ListNotes(ctx, &store.FindNote{})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, 2, index.Len())

	steps, err := ts.ListWorkflowSteps(ctx, &store.FindWorkflowStep{InstanceID: instance.ID})
	require.NoError(t, err)
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{
		"split text",
		"create database record: 0/2",
		"generate embedding: 0/2",
		"insert vector: 0/2",
		"create database record: 1/2",
		"generate embedding: 1/2",
		"insert vector: 1/2",
	}, names)

	matches, err := index.Query(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	note, err := ts.GetNote(ctx, &store.FindNote{ID: ptr(parseID(t, matches[0].ID))})
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "second chunk", note.Text)

	// Re-running a finished instance creates nothing new.
	require.NoError(t, engine.Run(ctx, instance.ID))
	notes, err = ts.ListNotes(ctx, &store.FindNote{})
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestIngestWorkflow_NoChunks(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	index := vector.NewMemoryIndex()
	engine := newTestEngine(ts, NewIngestWorkflow(ts, fixedSplitter{}, &fakeEmbedding{}, index))

	instance, err := engine.Create(ctx, IngestWorkflowName, IngestParams{Text: "   "})
	require.NoError(t, err)
	require.NoError(t, engine.Run(ctx, instance.ID))

	got, err := ts.GetWorkflowInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, store.WorkflowComplete, got.Status)
	assert.Equal(t, 0, index.Len())
}

func TestIngestWorkflow_EmptyEmbeddingErrors(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	embedding := &fakeEmbedding{vectors: map[string][]float32{"chunk": {}}}
	engine := newTestEngine(ts, NewIngestWorkflow(ts, fixedSplitter{chunks: []string{"chunk"}}, embedding, vector.NewMemoryIndex()))

	instance, err := engine.Create(ctx, IngestWorkflowName, IngestParams{Text: "chunk"})
	require.NoError(t, err)
	require.Error(t, engine.Run(ctx, instance.ID))

	got, err := ts.GetWorkflowInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, store.WorkflowErrored, got.Status)
	assert.Contains(t, got.Error, "failed to generate vector embedding")
	assert.Equal(t, 2, embedding.calls, "one attempt plus one retry")

	// The note row was journaled before the failure and is not duplicated on resume.
	notes, err := ts.ListNotes(ctx, &store.FindNote{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestIngestWorkflow_ResumesAfterEmbeddingOutage(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	index := vector.NewMemoryIndex()
	embedding := &fakeEmbedding{err: fmt.Errorf("embedding service down")}
	w := NewIngestWorkflow(ts, fixedSplitter{chunks: []string{"chunk"}}, embedding, index)

	runCtx, shutdown := context.WithCancel(ctx)
	engine := workflow.NewEngine(ts, workflow.Config{RetryLimit: 5, RetryDelay: time.Hour, StepTimeout: time.Second})
	engine.Register(IngestWorkflowName, workflow.Func(func(ctx context.Context, instance *store.WorkflowInstance, step *workflow.Step) error {
		// Shut down while the first embedding retry is waiting.
		go func() {
			for {
				embedding.mu.Lock()
				calls := embedding.calls
				embedding.mu.Unlock()
				if calls > 0 {
					shutdown()
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
		return w.Run(ctx, instance, step)
	}))

	instance, err := engine.Create(ctx, IngestWorkflowName, IngestParams{Text: "chunk"})
	require.NoError(t, err)
	require.ErrorIs(t, engine.Run(runCtx, instance.ID), context.Canceled)

	embedding.mu.Lock()
	embedding.err = nil
	embedding.mu.Unlock()

	resumed := newTestEngine(ts, w)
	require.NoError(t, resumed.Run(ctx, instance.ID))

	notes, err := ts.ListNotes(ctx, &store.FindNote{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, 1, index.Len())
}
