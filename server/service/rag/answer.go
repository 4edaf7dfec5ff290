package rag

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/plugin/ai"
	"github.com/hrygo/noterag/plugin/ai/cache"
	"github.com/hrygo/noterag/plugin/ai/vector"
	apperrors "github.com/hrygo/noterag/server/internal/errors"
	"github.com/hrygo/noterag/internal/observability"
	"github.com/hrygo/noterag/store"
)

// ErrNoOutput is returned when the model answers with no text.
var ErrNoOutput = apperrors.NoOutput("We were unable to generate output")

// Answer is a generated answer and the notes it was grounded on.
type Answer struct {
	Text  string
	Model string
	Notes []*store.Note
}

// AnswerConfig controls retrieval and prompt layout.
type AnswerConfig struct {
	// TopK is the number of notes retrieved as context.
	TopK int
	// CombinedSystemPrompt puts the system prompt and context in one message.
	CombinedSystemPrompt bool
}

// AnswerService answers questions with notes retrieved from the vector index.
type AnswerService struct {
	store     *store.Store
	embedding ai.EmbeddingService
	index     vector.VectorIndex
	llm       ai.LLMService
	reranker  ai.RerankerService
	cache     *cache.EmbeddingCache
	config    AnswerConfig
}

// NewAnswerService creates an AnswerService. reranker and embeddingCache may be nil.
func NewAnswerService(
	s *store.Store,
	embedding ai.EmbeddingService,
	index vector.VectorIndex,
	llm ai.LLMService,
	reranker ai.RerankerService,
	embeddingCache *cache.EmbeddingCache,
	config AnswerConfig,
) *AnswerService {
	if config.TopK <= 0 {
		config.TopK = 1
	}
	return &AnswerService{
		store:     s,
		embedding: embedding,
		index:     index,
		llm:       llm,
		reranker:  reranker,
		cache:     embeddingCache,
		config:    config,
	}
}

// Answer embeds the question, retrieves matching notes and asks the model.
func (s *AnswerService) Answer(ctx context.Context, question string) (*Answer, error) {
	if question == "" {
		question = DefaultQuestion
	}
	logger := observability.LoggerFromContext(ctx)

	queryVector, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Query(ctx, queryVector, s.config.TopK)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("vector index query failed", err)
	}

	notes, err := s.loadNotes(ctx, matches)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		logger.Info("no notes matched the question")
	}

	notes = s.rerank(ctx, question, notes)
	texts := make([]string, len(notes))
	for i, note := range notes {
		texts[i] = note.Text
	}

	text, err := s.llm.Chat(ctx, BuildMessages(question, texts, s.config.CombinedSystemPrompt))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ContextCanceled(err)
		}
		return nil, apperrors.LLMUnavailable("failed to generate answer", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoOutput
	}

	model := s.llm.Model()
	observability.RecordAnswer(model)
	logger.Info("answer generated", "model", model, "notes", len(notes))
	return &Answer{
		Text:  text,
		Model: model,
		Notes: notes,
	}, nil
}

func (s *AnswerService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	model := s.embedding.Model()
	if s.cache != nil {
		if vec, ok := s.cache.Get(model, question); ok {
			return vec, nil
		}
	}
	vec, err := s.embedding.Embed(ctx, question)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("failed to embed question", err)
	}
	if len(vec) == 0 {
		return nil, apperrors.Internal("failed to generate vector embedding", nil)
	}
	if s.cache != nil {
		s.cache.Set(model, question, vec)
	}
	return vec, nil
}

// loadNotes fetches the matched notes in match order. Matches whose note no
// longer exists are skipped.
func (s *AnswerService) loadNotes(ctx context.Context, matches []vector.Match) ([]*store.Note, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	ids := make([]int32, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m.ID, 10, 32)
		if err != nil {
			slog.Warn("skipping vector match with non-numeric id", "id", m.ID)
			continue
		}
		ids = append(ids, int32(id))
	}
	if len(ids) == 0 {
		return nil, nil
	}

	list, err := s.store.ListNotes(ctx, &store.FindNote{IDList: ids})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load matched notes")
	}
	byID := make(map[int32]*store.Note, len(list))
	for _, note := range list {
		byID[note.ID] = note
	}
	notes := make([]*store.Note, 0, len(ids))
	for _, id := range ids {
		if note, ok := byID[id]; ok {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

// rerank reorders notes by relevance when a reranker is enabled. Failures keep
// the vector index order.
func (s *AnswerService) rerank(ctx context.Context, question string, notes []*store.Note) []*store.Note {
	if s.reranker == nil || !s.reranker.IsEnabled() || len(notes) < 2 {
		return notes
	}
	documents := make([]string, len(notes))
	for i, note := range notes {
		documents[i] = note.Text
	}
	results, err := s.reranker.Rerank(ctx, question, documents, len(documents))
	if err != nil {
		slog.Warn("rerank failed, keeping retrieval order", "error", err)
		return notes
	}
	reranked := make([]*store.Note, 0, len(results))
	for _, r := range results {
		reranked = append(reranked, notes[r.Index])
	}
	return reranked
}
