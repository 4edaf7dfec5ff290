package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// EmbeddingService is the vector embedding service interface.
type EmbeddingService interface {
	// Embed generates vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimension.
	Dimensions() int

	// Model returns the embedding model name.
	Model() string
}

// embedder is the subset of the OpenAI client used for embeddings.
type embedder interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type embeddingService struct {
	client     embedder
	model      string
	dimensions int
	// sendDimensions is only honored by OpenAI's text-embedding-3 models.
	sendDimensions bool
}

// NewEmbeddingService creates a new EmbeddingService.
// Every supported provider speaks the OpenAI embeddings API.
func NewEmbeddingService(cfg *EmbeddingConfig) (EmbeddingService, error) {
	var clientConfig openai.ClientConfig

	switch cfg.Provider {
	case "siliconflow", "openai":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	case "ollama":
		clientConfig = openai.DefaultConfig("ollama")
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	default:
		return nil, errors.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	return &embeddingService{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		dimensions:     cfg.Dimensions,
		sendDimensions: cfg.Provider == "openai",
	}, nil
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vectors[0], nil
}

func (s *embeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.model),
	}
	if s.sendDimensions {
		req.Dimensions = s.dimensions
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create embeddings failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	// Data is ordered by Index, which may not match the response order.
	vectors := make([][]float32, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(vectors) {
			idx = i
		}
		if idx < len(vectors) {
			vectors[idx] = data.Embedding
		}
	}
	return vectors, nil
}

func (s *embeddingService) Dimensions() int {
	return s.dimensions
}

func (s *embeddingService) Model() string {
	return s.model
}
