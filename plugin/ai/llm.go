package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream performs streaming chat.
	ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error)

	// Model returns the model name reported to clients.
	Model() string
}

type llmService struct {
	model       llms.Model
	name        string
	maxTokens   int
	temperature float32
}

// NewLLMService creates a new LLMService.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "anthropic":
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)

	case "deepseek":
		// DeepSeek is compatible with OpenAI API
		model, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
		)

	case "openai":
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)

	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
		)

	default:
		return nil, errors.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s client", cfg.Provider)
	}

	return &llmService{
		model:       model,
		name:        cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (s *llmService) Model() string {
	return s.name
}

// Chat returns the text of every content part in the response joined by "\n".
func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := s.model.GenerateContent(ctx, convertMessages(messages), s.callOptions()...)
	if err != nil {
		return "", err
	}
	return joinChoices(resp), nil
}

func (s *llmService) ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		opts := append(s.callOptions(), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			select {
			case contentChan <- string(chunk):
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}))
		if _, err := s.model.GenerateContent(ctx, convertMessages(messages), opts...); err != nil {
			errChan <- err
		}
	}()

	return contentChan, errChan
}

func (s *llmService) callOptions() []llms.CallOption {
	var opts []llms.CallOption
	if s.temperature > 0 {
		opts = append(opts, llms.WithTemperature(float64(s.temperature)))
	}
	if s.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.maxTokens))
	}
	return opts
}

func joinChoices(resp *llms.ContentResponse) string {
	if resp == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice == nil || choice.Content == "" {
			continue
		}
		parts = append(parts, choice.Content)
	}
	return strings.Join(parts, "\n")
}

func convertMessages(messages []Message) []llms.MessageContent {
	llmMessages := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "user":
			role = llms.ChatMessageTypeHuman
		case "assistant":
			role = llms.ChatMessageTypeAI
		}

		llmMessages[i] = llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		}
	}
	return llmMessages
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
