package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// TestNewLLMService tests service creation.
func TestNewLLMService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *LLMConfig
		expectError bool
	}{
		{
			name: "Anthropic config",
			cfg: &LLMConfig{
				Provider:  "anthropic",
				Model:     "claude-3-5-sonnet-latest",
				APIKey:    "test-key",
				MaxTokens: 1024,
			},
		},
		{
			name: "DeepSeek config",
			cfg: &LLMConfig{
				Provider:    "deepseek",
				Model:       "deepseek-chat",
				APIKey:      "test-key",
				BaseURL:     "https://api.deepseek.com",
				MaxTokens:   1024,
				Temperature: 0.7,
			},
		},
		{
			name: "OpenAI config",
			cfg: &LLMConfig{
				Provider: "openai",
				Model:    "gpt-4o-mini",
				APIKey:   "test-key",
			},
		},
		{
			name: "Ollama config",
			cfg: &LLMConfig{
				Provider: "ollama",
				Model:    "llama3",
				BaseURL:  "http://localhost:11434",
			},
		},
		{
			name:        "Unsupported provider",
			cfg:         &LLMConfig{Provider: "unsupported"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewLLMService(tt.cfg)
			if (err != nil) != tt.expectError {
				t.Fatalf("NewLLMService() error = %v, expectError %v", err, tt.expectError)
			}
			if !tt.expectError && service.Model() != tt.cfg.Model {
				t.Errorf("Model() = %s, want %s", service.Model(), tt.cfg.Model)
			}
		})
	}
}

// TestConvertMessages tests message conversion.
func TestConvertMessages(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
		{Role: "unknown", Content: "Treated as human"},
	}

	llmMessages := convertMessages(messages)
	if len(llmMessages) != len(messages) {
		t.Fatalf("convertMessages() length = %d, want %d", len(llmMessages), len(messages))
	}

	expected := []llms.ChatMessageType{
		llms.ChatMessageTypeSystem,
		llms.ChatMessageTypeHuman,
		llms.ChatMessageTypeAI,
		llms.ChatMessageTypeHuman,
	}
	for i, msg := range llmMessages {
		if msg.Role != expected[i] {
			t.Errorf("message %d role = %s, want %s", i, msg.Role, expected[i])
		}
		if len(msg.Parts) != 1 {
			t.Errorf("message %d has %d parts, want 1", i, len(msg.Parts))
		}
	}
}

// fakeModel is an llms.Model returning canned choices.
type fakeModel struct {
	choices  []*llms.ContentChoice
	err      error
	received []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.received = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: f.choices}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// TestLLMService_Chat tests that content parts are joined with newlines.
func TestLLMService_Chat(t *testing.T) {
	tests := []struct {
		name     string
		choices  []*llms.ContentChoice
		expected string
	}{
		{"single part", []*llms.ContentChoice{{Content: "3"}}, "3"},
		{"multiple parts", []*llms.ContentChoice{{Content: "The answer"}, {Content: ""}, {Content: "is 3."}}, "The answer\nis 3."},
		{"no parts", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{choices: tt.choices}
			service := &llmService{model: model, name: "fake", maxTokens: 1024}

			got, err := service.Chat(context.Background(), []Message{SystemPrompt("sys"), UserMessage("q")})
			if err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Chat() = %q, want %q", got, tt.expected)
			}
			if len(model.received) != 2 {
				t.Errorf("model received %d messages, want 2", len(model.received))
			}
		})
	}
}

// TestLLMService_Chat_Error tests error propagation.
func TestLLMService_Chat_Error(t *testing.T) {
	service := &llmService{model: &fakeModel{err: errors.New("overloaded")}}
	if _, err := service.Chat(context.Background(), []Message{UserMessage("q")}); err == nil {
		t.Error("Expected error, got nil")
	}
}

// TestLLMService_ChatStream_Error tests that errors arrive on the error channel.
func TestLLMService_ChatStream_Error(t *testing.T) {
	service := &llmService{model: &fakeModel{err: errors.New("overloaded")}}
	contentChan, errChan := service.ChatStream(context.Background(), []Message{UserMessage("q")})

	for range contentChan {
	}
	if err := <-errChan; err == nil {
		t.Error("Expected error on errChan, got nil")
	}
}

// TestCallOptions tests that a zero temperature is left to the provider.
func TestCallOptions(t *testing.T) {
	tests := []struct {
		name        string
		service     *llmService
		expectTemp  bool
		expectCount int
	}{
		{"provider default temperature", &llmService{maxTokens: 1024}, false, 1},
		{"explicit temperature", &llmService{maxTokens: 1024, temperature: 0.7}, true, 2},
		{"nothing set", &llmService{}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.service.callOptions()
			if len(opts) != tt.expectCount {
				t.Fatalf("Expected %d options, got %d", tt.expectCount, len(opts))
			}
			var callOpts llms.CallOptions
			for _, opt := range opts {
				opt(&callOpts)
			}
			if tt.expectTemp && callOpts.Temperature != float64(float32(0.7)) {
				t.Errorf("Expected temperature 0.7, got %v", callOpts.Temperature)
			}
			if !tt.expectTemp && callOpts.Temperature != 0 {
				t.Errorf("Expected no temperature, got %v", callOpts.Temperature)
			}
		})
	}
}
