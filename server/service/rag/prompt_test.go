package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/noterag/plugin/ai"
)

func TestContextMessage(t *testing.T) {
	assert.Equal(t, "", ContextMessage(nil))
	assert.Equal(t, "Context:\n- a\n- b", ContextMessage([]string{"a", "b"}))
}

func TestBuildMessages(t *testing.T) {
	tests := []struct {
		name     string
		notes    []string
		combined bool
		expected []ai.Message
	}{
		{
			name:     "combined with notes",
			notes:    []string{"The sky is blue"},
			combined: true,
			expected: []ai.Message{
				{Role: "system", Content: SystemPrompt + " Context:\n- The sky is blue"},
				{Role: "user", Content: "q"},
			},
		},
		{
			name:     "combined without notes",
			combined: true,
			expected: []ai.Message{
				{Role: "system", Content: SystemPrompt + " "},
				{Role: "user", Content: "q"},
			},
		},
		{
			name:  "separate with notes",
			notes: []string{"n1", "n2"},
			expected: []ai.Message{
				{Role: "system", Content: "Context:\n- n1\n- n2"},
				{Role: "system", Content: SystemPrompt},
				{Role: "user", Content: "q"},
			},
		},
		{
			name: "separate without notes",
			expected: []ai.Message{
				{Role: "system", Content: SystemPrompt},
				{Role: "user", Content: "q"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildMessages("q", tt.notes, tt.combined))
		})
	}
}
