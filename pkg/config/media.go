package config

import (
	"fmt"
	"os"
	"time"
)

// MediaConfig configures image, video, and music generation via the
// Google GenAI API.
type MediaConfig struct {
	// APIKey authenticates with the GenAI API.
	// Falls back to GOOGLE_API_KEY, then GEMINI_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`

	// ImageModel generates and edits images.
	ImageModel string `yaml:"image_model,omitempty"`

	// VideoModel generates videos through long-running operations.
	VideoModel string `yaml:"video_model,omitempty"`

	// MusicModel is the Lyria RealTime model for music generation.
	MusicModel string `yaml:"music_model,omitempty"`

	// MusicDuration is how long a music session streams audio before the
	// clip is finalized.
	MusicDuration time.Duration `yaml:"music_duration,omitempty"`

	// OperationTTL is how long finished video operations stay queryable.
	OperationTTL time.Duration `yaml:"operation_ttl,omitempty"`
}

// SetDefaults applies default values to MediaConfig.
func (c *MediaConfig) SetDefaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.ImageModel == "" {
		c.ImageModel = "gemini-2.5-flash-image"
	}
	if c.VideoModel == "" {
		c.VideoModel = "veo-3.1-generate-preview"
	}
	if c.MusicModel == "" {
		c.MusicModel = "models/lyria-realtime-exp"
	}
	if c.MusicDuration == 0 {
		c.MusicDuration = 30 * time.Second
	}
	if c.OperationTTL == 0 {
		c.OperationTTL = time.Hour
	}
}

// Validate checks the MediaConfig.
func (c *MediaConfig) Validate() error {
	if c.MusicDuration < time.Second {
		return fmt.Errorf("music_duration must be at least 1s")
	}
	if c.OperationTTL < time.Minute {
		return fmt.Errorf("operation_ttl must be at least 1m")
	}
	return nil
}
