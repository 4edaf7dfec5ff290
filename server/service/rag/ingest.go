package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/plugin/ai"
	"github.com/hrygo/noterag/plugin/ai/vector"
	"github.com/hrygo/noterag/internal/observability"
	"github.com/hrygo/noterag/server/workflow"
	"github.com/hrygo/noterag/store"
)

// IngestWorkflowName is the registered name of the note ingestion workflow.
const IngestWorkflowName = "rag-ingest"

// IngestParams are the params of an ingestion instance.
type IngestParams struct {
	Text string `json:"text"`
}

// IngestWorkflow splits a text into chunks and stores, embeds and indexes each one.
type IngestWorkflow struct {
	store     *store.Store
	splitter  ai.Splitter
	embedding ai.EmbeddingService
	index     vector.VectorIndex
}

// NewIngestWorkflow creates the ingestion workflow.
func NewIngestWorkflow(s *store.Store, splitter ai.Splitter, embedding ai.EmbeddingService, index vector.VectorIndex) *IngestWorkflow {
	return &IngestWorkflow{
		store:     s,
		splitter:  splitter,
		embedding: embedding,
		index:     index,
	}
}

// Run implements workflow.Workflow.
func (w *IngestWorkflow) Run(ctx context.Context, instance *store.WorkflowInstance, step *workflow.Step) error {
	var params IngestParams
	if err := json.Unmarshal([]byte(instance.Params), &params); err != nil {
		return errors.Wrap(err, "invalid ingest params")
	}

	var chunks []string
	if err := step.Do(ctx, "split text", func(context.Context) (any, error) {
		return w.splitter.Split(params.Text)
	}, &chunks); err != nil {
		return err
	}
	slog.Info("text split into chunks",
		observability.LogFieldWorkflowID, instance.ID,
		"count", len(chunks),
	)

	n := len(chunks)
	for i, chunk := range chunks {
		progress := fmt.Sprintf("%d/%d", i, n)

		var note store.Note
		if err := step.Do(ctx, "create database record: "+progress, func(ctx context.Context) (any, error) {
			created, err := w.store.CreateNote(ctx, &store.Note{Text: chunk})
			if err != nil {
				return nil, err
			}
			if created == nil {
				return nil, errors.New("failed to create note")
			}
			return created, nil
		}, &note); err != nil {
			return err
		}

		var values []float32
		if err := step.Do(ctx, "generate embedding: "+progress, func(ctx context.Context) (any, error) {
			vec, err := w.embedding.Embed(ctx, chunk)
			if err != nil {
				return nil, err
			}
			if len(vec) == 0 {
				return nil, errors.New("failed to generate vector embedding")
			}
			return vec, nil
		}, &values); err != nil {
			return err
		}

		if err := step.Do(ctx, "insert vector: "+progress, func(ctx context.Context) (any, error) {
			id := strconv.FormatInt(int64(note.ID), 10)
			if err := w.index.Upsert(ctx, []vector.Vector{{ID: id, Values: values}}); err != nil {
				return nil, err
			}
			return id, nil
		}, nil); err != nil {
			return err
		}
	}
	return nil
}
