package ai

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter breaks text into overlapping chunks for embedding.
type Splitter interface {
	Split(text string) ([]string, error)
}

type recursiveSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewSplitter creates a recursive character splitter that prefers paragraph,
// then line, then word boundaries.
func NewSplitter(cfg *SplitterConfig) Splitter {
	return &recursiveSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split returns the non-blank chunks of text.
func (s *recursiveSplitter) Split(text string) ([]string, error) {
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split text")
	}
	result := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		result = append(result, chunk)
	}
	return result, nil
}
