package rag

import (
	"strings"

	"github.com/hrygo/noterag/plugin/ai"
)

// DefaultQuestion is asked when a request carries no question.
const DefaultQuestion = "What is the square root of 9?"

// SystemPrompt tells the model how to use the retrieved notes.
const SystemPrompt = "When answering the question or responding, use the context provided, if it is provided and relevant."

// ContextMessage renders notes as a bulleted context block, or "" when there are none.
func ContextMessage(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	lines := make([]string, len(notes))
	for i, note := range notes {
		lines[i] = "- " + note
	}
	return "Context:\n" + strings.Join(lines, "\n")
}

// BuildMessages lays out the prompt for question. With combinedSystem the
// system prompt and the context share one system message, which is what
// Anthropic models expect. Otherwise the context comes first as its own
// system message and is omitted when there are no notes.
func BuildMessages(question string, notes []string, combinedSystem bool) []ai.Message {
	contextMessage := ContextMessage(notes)
	if combinedSystem {
		return []ai.Message{
			ai.SystemPrompt(strings.Join([]string{SystemPrompt, contextMessage}, " ")),
			ai.UserMessage(question),
		}
	}

	messages := make([]ai.Message, 0, 3)
	if len(notes) > 0 {
		messages = append(messages, ai.SystemPrompt(contextMessage))
	}
	return append(messages, ai.SystemPrompt(SystemPrompt), ai.UserMessage(question))
}
