package rag

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/noterag/plugin/ai"
	"github.com/hrygo/noterag/plugin/ai/cache"
	"github.com/hrygo/noterag/plugin/ai/vector"
	apperrors "github.com/hrygo/noterag/server/internal/errors"
	"github.com/hrygo/noterag/store"
	teststore "github.com/hrygo/noterag/store/test"
)

func ptr[T any](v T) *T {
	return &v
}

func parseID(t *testing.T, id string) int32 {
	t.Helper()
	n, err := strconv.ParseInt(id, 10, 32)
	require.NoError(t, err)
	return int32(n)
}

// seedNote stores text and indexes it under values.
func seedNote(ctx context.Context, t *testing.T, ts *store.Store, index vector.VectorIndex, text string, values []float32) *store.Note {
	t.Helper()
	note, err := ts.CreateNote(ctx, &store.Note{Text: text})
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, []vector.Vector{{ID: strconv.Itoa(int(note.ID)), Values: values}}))
	return note
}

func TestAnswerService_Answer(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	index := vector.NewMemoryIndex()
	seedNote(ctx, t, ts, index, "The dog is named Rex", []float32{1, 0, 0})
	seedNote(ctx, t, ts, index, "The cat is named Tom", []float32{0, 1, 0})

	embedding := &fakeEmbedding{vectors: map[string][]float32{"What is the cat called?": {0, 1, 0}}}

	tests := []struct {
		name     string
		combined bool
		expected []ai.Message
	}{
		{
			name:     "anthropic layout",
			combined: true,
			expected: []ai.Message{
				ai.SystemPrompt(SystemPrompt + " Context:\n- The cat is named Tom"),
				ai.UserMessage("What is the cat called?"),
			},
		},
		{
			name: "fallback layout",
			expected: []ai.Message{
				ai.SystemPrompt("Context:\n- The cat is named Tom"),
				ai.SystemPrompt(SystemPrompt),
				ai.UserMessage("What is the cat called?"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{reply: "Tom", model: "test-model"}
			svc := NewAnswerService(ts, embedding, index, llm, nil, nil, AnswerConfig{TopK: 1, CombinedSystemPrompt: tt.combined})

			answer, err := svc.Answer(ctx, "What is the cat called?")
			require.NoError(t, err)
			assert.Equal(t, "Tom", answer.Text)
			assert.Equal(t, "test-model", answer.Model)
			require.Len(t, answer.Notes, 1)
			assert.Equal(t, "The cat is named Tom", answer.Notes[0].Text)
			assert.Equal(t, tt.expected, llm.messages)
		})
	}
}

func TestAnswerService_DefaultQuestionAndNoContext(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	llm := &fakeLLM{reply: "3", model: "test-model"}
	svc := NewAnswerService(ts, &fakeEmbedding{}, vector.NewMemoryIndex(), llm, nil, nil, AnswerConfig{})

	answer, err := svc.Answer(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "3", answer.Text)
	assert.Empty(t, answer.Notes)
	assert.Equal(t, []ai.Message{
		ai.SystemPrompt(SystemPrompt),
		ai.UserMessage(DefaultQuestion),
	}, llm.messages)

	_, err = svc.Answer(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, []ai.Message{
		ai.SystemPrompt(SystemPrompt),
		ai.UserMessage("  "),
	}, llm.messages)
}

func TestAnswerService_NoOutput(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	svc := NewAnswerService(ts, &fakeEmbedding{}, vector.NewMemoryIndex(), &fakeLLM{reply: "  "}, nil, nil, AnswerConfig{})

	_, err := svc.Answer(ctx, "hello")
	require.ErrorIs(t, err, ErrNoOutput)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNoOutput))
}

func TestAnswerService_Errors(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)

	svc := NewAnswerService(ts, &fakeEmbedding{err: fmt.Errorf("down")}, vector.NewMemoryIndex(), &fakeLLM{reply: "x"}, nil, nil, AnswerConfig{})
	_, err := svc.Answer(ctx, "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable))

	svc = NewAnswerService(ts, &fakeEmbedding{}, vector.NewMemoryIndex(), &fakeLLM{err: fmt.Errorf("quota")}, nil, nil, AnswerConfig{})
	_, err = svc.Answer(ctx, "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLLMUnavailable))
}

func TestAnswerService_CachesQuestionEmbedding(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	embeddingCache := cache.NewEmbeddingCache(cache.DefaultServiceConfig())
	defer embeddingCache.Close()

	embedding := &fakeEmbedding{}
	svc := NewAnswerService(ts, embedding, vector.NewMemoryIndex(), &fakeLLM{reply: "ok"}, nil, embeddingCache, AnswerConfig{})

	for i := 0; i < 3; i++ {
		_, err := svc.Answer(ctx, "same question")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, embedding.calls)
	assert.Equal(t, 1, embeddingCache.Size())
}

func TestAnswerService_SkipsDeletedNotesAndReranks(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	index := vector.NewMemoryIndex()
	first := seedNote(ctx, t, ts, index, "closest", []float32{1, 0, 0})
	seedNote(ctx, t, ts, index, "close", []float32{0.9, 0.1, 0})
	gone := seedNote(ctx, t, ts, index, "deleted", []float32{0.8, 0.2, 0})
	require.NoError(t, ts.DeleteNote(ctx, &store.DeleteNote{ID: gone.ID}))

	embedding := &fakeEmbedding{vectors: map[string][]float32{"q": {1, 0, 0}}}

	svc := NewAnswerService(ts, embedding, index, &fakeLLM{reply: "ok"}, nil, nil, AnswerConfig{TopK: 3})
	answer, err := svc.Answer(ctx, "q")
	require.NoError(t, err)
	require.Len(t, answer.Notes, 2)
	assert.Equal(t, first.ID, answer.Notes[0].ID)

	svc = NewAnswerService(ts, embedding, index, &fakeLLM{reply: "ok"}, reverseReranker{}, nil, AnswerConfig{TopK: 3})
	answer, err = svc.Answer(ctx, "q")
	require.NoError(t, err)
	require.Len(t, answer.Notes, 2)
	assert.Equal(t, "close", answer.Notes[0].Text)
	assert.Equal(t, "closest", answer.Notes[1].Text)

	svc = NewAnswerService(ts, embedding, index, &fakeLLM{reply: "ok"}, failingReranker{}, nil, AnswerConfig{TopK: 3})
	answer, err = svc.Answer(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "closest", answer.Notes[0].Text)
}
