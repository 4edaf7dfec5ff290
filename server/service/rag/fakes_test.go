package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/hrygo/noterag/plugin/ai"
)

// fakeEmbedding maps known texts to fixed vectors and everything else to a default.
type fakeEmbedding struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	err     error
}

func (f *fakeEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (*fakeEmbedding) Dimensions() int { return 3 }

func (*fakeEmbedding) Model() string { return "fake-embedding" }

type fakeLLM struct {
	reply    string
	err      error
	model    string
	messages []ai.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.messages = messages
	return f.reply, f.err
}

func (f *fakeLLM) ChatStream(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	content := make(chan string, 1)
	errs := make(chan error, 1)
	reply, err := f.Chat(ctx, messages)
	if err != nil {
		errs <- err
	} else {
		content <- reply
	}
	close(content)
	close(errs)
	return content, errs
}

func (f *fakeLLM) Model() string { return f.model }

// fixedSplitter splits on a fixed chunk list or fails.
type fixedSplitter struct {
	chunks []string
	err    error
}

func (s fixedSplitter) Split(string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

type reverseReranker struct{}

func (reverseReranker) IsEnabled() bool { return true }

func (reverseReranker) Rerank(_ context.Context, _ string, documents []string, _ int) ([]ai.RerankResult, error) {
	results := make([]ai.RerankResult, len(documents))
	for i := range documents {
		results[i] = ai.RerankResult{Index: len(documents) - 1 - i, Score: float32(i)}
	}
	return results, nil
}

type failingReranker struct{}

func (failingReranker) IsEnabled() bool { return true }

func (failingReranker) Rerank(context.Context, string, []string, int) ([]ai.RerankResult, error) {
	return nil, fmt.Errorf("rerank unavailable")
}
