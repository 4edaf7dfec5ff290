package ai

import (
	"github.com/pkg/errors"

	"github.com/hrygo/noterag/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	Reranker  RerankerConfig
	LLM       LLMConfig
	// Anthropic is used for answers instead of LLM when it has an API key.
	Anthropic LLMConfig
	Splitter  SplitterConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // siliconflow, openai, ollama
	Model      string // BAAI/bge-m3
	Dimensions int    // 1024
	APIKey     string
	BaseURL    string
}

// RerankerConfig represents reranker configuration.
type RerankerConfig struct {
	Enabled bool
	Model   string // BAAI/bge-reranker-v2-m3
	APIKey  string
	BaseURL string
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // anthropic, deepseek, openai, ollama
	Model       string // deepseek-chat
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // 0 leaves the provider default
}

// SplitterConfig represents text chunking configuration.
type SplitterConfig struct {
	ChunkSize    int // default: 1000
	ChunkOverlap int // default: 200
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{}

	cfg.Embedding = EmbeddingConfig{
		Provider:   p.AIEmbeddingProvider,
		Model:      p.AIEmbeddingModel,
		Dimensions: p.AIEmbeddingDimensions,
	}
	switch p.AIEmbeddingProvider {
	case "siliconflow":
		cfg.Embedding.APIKey = p.AISiliconFlowAPIKey
		cfg.Embedding.BaseURL = p.AISiliconFlowBaseURL
	case "openai":
		cfg.Embedding.APIKey = p.AIOpenAIAPIKey
		cfg.Embedding.BaseURL = p.AIOpenAIBaseURL
	case "ollama":
		cfg.Embedding.BaseURL = p.AIOllamaBaseURL
	}

	cfg.Reranker = RerankerConfig{
		Enabled: p.AIRerankModel != "" && p.AISiliconFlowAPIKey != "",
		Model:   p.AIRerankModel,
		APIKey:  p.AISiliconFlowAPIKey,
		BaseURL: p.AISiliconFlowBaseURL,
	}

	cfg.LLM = LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
	switch p.AILLMProvider {
	case "deepseek":
		cfg.LLM.APIKey = p.AIDeepSeekAPIKey
		cfg.LLM.BaseURL = p.AIDeepSeekBaseURL
	case "openai":
		cfg.LLM.APIKey = p.AIOpenAIAPIKey
		cfg.LLM.BaseURL = p.AIOpenAIBaseURL
	case "ollama":
		cfg.LLM.BaseURL = p.AIOllamaBaseURL
	}

	if p.IsAnthropicEnabled() {
		cfg.Anthropic = LLMConfig{
			Provider:    "anthropic",
			Model:       p.AIAnthropicModel,
			APIKey:      p.AIAnthropicAPIKey,
			MaxTokens:   1024,
		}
	}

	cfg.Splitter = SplitterConfig{
		ChunkSize:    p.ChunkSize,
		ChunkOverlap: p.ChunkOverlap,
	}
	return cfg
}

// AnswerLLM returns the config of the model that answers questions.
func (c *Config) AnswerLLM() *LLMConfig {
	if c.Anthropic.APIKey != "" {
		return &c.Anthropic
	}
	return &c.LLM
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Embedding.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	answer := c.AnswerLLM()
	if answer.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if answer.Provider != "ollama" && answer.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.Splitter.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		return errors.Errorf("chunk overlap must be in [0, %d)", c.Splitter.ChunkSize)
	}
	return nil
}
