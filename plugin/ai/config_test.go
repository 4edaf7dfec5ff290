package ai

import (
	"testing"

	"github.com/hrygo/noterag/internal/profile"
)

func baseProfile() *profile.Profile {
	return &profile.Profile{
		AIEmbeddingProvider:   "siliconflow",
		AIEmbeddingModel:      "BAAI/bge-m3",
		AIEmbeddingDimensions: 1024,
		AISiliconFlowAPIKey:   "sf-key",
		AISiliconFlowBaseURL:  "https://api.siliconflow.cn/v1",
		AILLMProvider:         "deepseek",
		AILLMModel:            "deepseek-chat",
		AIDeepSeekAPIKey:      "deepseek-key",
		AIDeepSeekBaseURL:     "https://api.deepseek.com",
		AIAnthropicModel:      "claude-3-5-sonnet-latest",
		ChunkSize:             1000,
		ChunkOverlap:          200,
	}
}

// TestNewConfigFromProfile_SiliconFlow tests SiliconFlow configuration.
func TestNewConfigFromProfile_SiliconFlow(t *testing.T) {
	cfg := NewConfigFromProfile(baseProfile())

	if cfg.Embedding.Provider != "siliconflow" {
		t.Errorf("Expected Embedding.Provider=siliconflow, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.APIKey != "sf-key" {
		t.Errorf("Expected Embedding.APIKey=sf-key, got %s", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.Dimensions != 1024 {
		t.Errorf("Expected Embedding.Dimensions=1024, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.LLM.APIKey != "deepseek-key" {
		t.Errorf("Expected LLM.APIKey=deepseek-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.LLM.MaxTokens != 1024 {
		t.Errorf("Expected LLM.MaxTokens=1024, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.Splitter.ChunkSize != 1000 || cfg.Splitter.ChunkOverlap != 200 {
		t.Errorf("Unexpected splitter config: %+v", cfg.Splitter)
	}
	if cfg.Reranker.Enabled {
		t.Error("Reranker should be disabled without a rerank model")
	}
	if got := cfg.AnswerLLM(); got.Provider != "deepseek" {
		t.Errorf("Expected answers from deepseek, got %s", got.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestNewConfigFromProfile_Anthropic tests that an Anthropic key takes over answers.
func TestNewConfigFromProfile_Anthropic(t *testing.T) {
	p := baseProfile()
	p.AIAnthropicAPIKey = "sk-ant"
	p.AIDeepSeekAPIKey = ""

	cfg := NewConfigFromProfile(p)
	answer := cfg.AnswerLLM()
	if answer.Provider != "anthropic" {
		t.Fatalf("Expected answers from anthropic, got %s", answer.Provider)
	}
	if answer.Model != "claude-3-5-sonnet-latest" {
		t.Errorf("Expected Model=claude-3-5-sonnet-latest, got %s", answer.Model)
	}
	if answer.MaxTokens != 1024 {
		t.Errorf("Expected MaxTokens=1024, got %d", answer.MaxTokens)
	}
	if answer.Temperature != 0 {
		t.Errorf("Expected provider default temperature, got %v", answer.Temperature)
	}
	// The fallback LLM has no key, but it is not used.
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestNewConfigFromProfile_Ollama tests Ollama configuration.
func TestNewConfigFromProfile_Ollama(t *testing.T) {
	p := baseProfile()
	p.AIEmbeddingProvider = "ollama"
	p.AILLMProvider = "ollama"
	p.AIOllamaBaseURL = "http://localhost:11434"

	cfg := NewConfigFromProfile(p)
	if cfg.Embedding.BaseURL != "http://localhost:11434" {
		t.Errorf("Expected Embedding.BaseURL=http://localhost:11434, got %s", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.APIKey != "" {
		t.Errorf("Expected empty Embedding.APIKey, got %s", cfg.Embedding.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Ollama needs no keys, Validate() error = %v", err)
	}
}

// TestNewConfigFromProfile_Reranker tests reranker enablement.
func TestNewConfigFromProfile_Reranker(t *testing.T) {
	p := baseProfile()
	p.AIRerankModel = "BAAI/bge-reranker-v2-m3"

	cfg := NewConfigFromProfile(p)
	if !cfg.Reranker.Enabled {
		t.Error("Expected reranker to be enabled")
	}
	if cfg.Reranker.APIKey != "sf-key" {
		t.Errorf("Expected Reranker.APIKey=sf-key, got %s", cfg.Reranker.APIKey)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing embedding provider", func(c *Config) { c.Embedding.Provider = "" }, true},
		{"missing embedding key", func(c *Config) { c.Embedding.APIKey = "" }, true},
		{"missing llm provider", func(c *Config) { c.LLM.Provider = "" }, true},
		{"missing llm key", func(c *Config) { c.LLM.APIKey = "" }, true},
		{"zero chunk size", func(c *Config) { c.Splitter.ChunkSize = 0 }, true},
		{"overlap too large", func(c *Config) { c.Splitter.ChunkOverlap = 1000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfigFromProfile(baseProfile())
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}
