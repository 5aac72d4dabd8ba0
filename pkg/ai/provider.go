// Package ai implements the text intelligence features: thread
// summarization, contextual Q&A, rewriting, and content moderation.
//
// A Provider abstracts the completion backend (an OpenAI-compatible API or
// Gemini); Service composes prompt templates with a Provider and parses
// structured results.
package ai

import (
	"context"
	"fmt"

	"github.com/forumlab/agora/pkg/config"
)

// Provider produces a completion for a prompt.
type Provider interface {
	// Complete runs a single-turn completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases provider resources.
	Close() error
}

// NewProviderFromConfig creates a Provider from configuration.
func NewProviderFromConfig(cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
