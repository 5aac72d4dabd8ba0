package config

import (
	"fmt"
	"os"
	"time"
)

// LLMConfig configures the text generation provider used by the AI
// endpoints (summarize, qa, rewrite, moderate).
type LLMConfig struct {
	// Provider is the provider type: "openai" (any OpenAI-compatible API)
	// or "gemini".
	Provider string `yaml:"provider,omitempty"`

	// Model is the model identifier.
	Model string `yaml:"model,omitempty"`

	// APIKey authenticates with the provider. Falls back to
	// OPENAI_API_KEY or GEMINI_API_KEY depending on Provider.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways,
	// local servers). Empty means the provider default.
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature for sampling.
	Temperature float64 `yaml:"temperature,omitempty"`

	// MaxTokens caps the completion length.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries for transient provider failures.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// SetDefaults applies default values to LLMConfig.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	if c.Model == "" {
		switch c.Provider {
		case "openai":
			c.Model = "gpt-4o-mini"
		default:
			c.Model = "gemini-2.0-flash"
		}
	}
	if c.APIKey == "" {
		switch c.Provider {
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the LLMConfig.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid provider %q (valid: openai, gemini)", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}
