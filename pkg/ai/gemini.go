package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/forumlab/agora/pkg/config"
)

// GeminiProvider generates completions through the Google GenAI SDK.
type GeminiProvider struct {
	client *genai.Client
	cfg    *config.LLMConfig
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(cfg *config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		cfg:    cfg,
	}, nil
}

// Complete runs a single-turn completion.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.cfg.Temperature)),
		MaxOutputTokens: int32(p.cfg.MaxTokens),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("Gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini returned no text")
	}
	return text, nil
}

// ModelName returns the configured model identifier.
func (p *GeminiProvider) ModelName() string {
	return p.cfg.Model
}

// Close releases provider resources.
func (p *GeminiProvider) Close() error {
	return nil
}
