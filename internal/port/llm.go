package port

import "ragkit/internal/domain"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate produces a completion for the given chat messages.
	Generate(messages []domain.Message) (string, error)
}
