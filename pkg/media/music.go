package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forumlab/agora/pkg/config"
)

// Lyria streams raw PCM16 stereo at 48kHz.
const (
	musicSampleRateHz = 48000
	musicChannels     = 2
	musicBitDepth     = 16
)

// defaultMusicEndpoint is the Lyria RealTime bidirectional streaming endpoint.
// Lyria is only served on the v1alpha API surface.
const defaultMusicEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateMusic"

// WeightedPrompt steers generation toward a musical idea. Higher weights
// pull harder.
type WeightedPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// MusicOptions controls a Lyria generation session.
type MusicOptions struct {
	BPM              int
	Temperature      float64
	Guidance         float64
	Density          *float64
	Brightness       *float64
	Scale            string
	MuteBass         bool
	MuteDrums        bool
	OnlyBassAndDrums bool
	Mode             string // QUALITY, DIVERSITY or VOCALIZATION
}

// DefaultMusicOptions returns the default session settings.
func DefaultMusicOptions() MusicOptions {
	return MusicOptions{
		BPM:         120,
		Temperature: 1.0,
		Guidance:    4.0,
		Mode:        "QUALITY",
	}
}

// Validate checks option values against Lyria's accepted ranges.
func (o *MusicOptions) Validate() error {
	if o.BPM < 60 || o.BPM > 200 {
		return fmt.Errorf("bpm must be between 60 and 200, got %d", o.BPM)
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %g", o.Temperature)
	}
	if o.Guidance < 0 || o.Guidance > 6 {
		return fmt.Errorf("guidance must be between 0.0 and 6.0, got %g", o.Guidance)
	}
	switch o.Mode {
	case "QUALITY", "DIVERSITY", "VOCALIZATION":
	default:
		return fmt.Errorf("invalid generation mode %q", o.Mode)
	}
	return nil
}

// MusicResult holds a finished audio clip.
type MusicResult struct {
	Audio           []byte
	SampleRateHz    int
	Channels        int
	BitDepth        int
	DurationSeconds float64
	Prompts         []string
}

// MusicService generates short audio clips by running a Lyria RealTime
// session for a fixed duration and concatenating the streamed chunks.
type MusicService struct {
	apiKey   string
	model    string
	endpoint string
	dialer   *websocket.Dialer
}

// MusicOption customizes a MusicService.
type MusicOption func(*MusicService)

// WithMusicEndpoint overrides the streaming endpoint.
func WithMusicEndpoint(endpoint string) MusicOption {
	return func(s *MusicService) { s.endpoint = endpoint }
}

// WithMusicDialer overrides the websocket dialer.
func WithMusicDialer(d *websocket.Dialer) MusicOption {
	return func(s *MusicService) { s.dialer = d }
}

// NewMusicService creates a music service from media configuration.
func NewMusicService(cfg *config.MediaConfig, opts ...MusicOption) (*MusicService, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	s := &MusicService{
		apiKey:   cfg.APIKey,
		model:    cfg.MusicModel,
		endpoint: defaultMusicEndpoint,
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Wire messages for the BidiGenerateMusic protocol.

type musicClientMessage struct {
	Setup           *musicSetup       `json:"setup,omitempty"`
	ClientContent   *musicContent     `json:"clientContent,omitempty"`
	Config          *musicWireConfig  `json:"musicGenerationConfig,omitempty"`
	PlaybackControl string            `json:"playbackControl,omitempty"`
}

type musicSetup struct {
	Model string `json:"model"`
}

type musicContent struct {
	WeightedPrompts []WeightedPrompt `json:"weightedPrompts"`
}

type musicWireConfig struct {
	BPM                 int      `json:"bpm"`
	Temperature         float64  `json:"temperature"`
	Guidance            float64  `json:"guidance"`
	Density             *float64 `json:"density,omitempty"`
	Brightness          *float64 `json:"brightness,omitempty"`
	Scale               string   `json:"scale,omitempty"`
	MuteBass            bool     `json:"muteBass"`
	MuteDrums           bool     `json:"muteDrums"`
	OnlyBassAndDrums    bool     `json:"onlyBassAndDrums"`
	MusicGenerationMode string   `json:"musicGenerationMode"`
}

type musicServerMessage struct {
	SetupComplete *struct{}           `json:"setupComplete,omitempty"`
	ServerContent *musicServerContent `json:"serverContent,omitempty"`
}

type musicServerContent struct {
	AudioChunks []musicAudioChunk `json:"audioChunks"`
}

type musicAudioChunk struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType,omitempty"`
}

// MaxMusicPrompts bounds how many weighted prompts a session accepts.
const MaxMusicPrompts = 5

// Music session length bounds.
const (
	MinMusicDuration = 5 * time.Second
	MaxMusicDuration = 120 * time.Second
)

// ValidateMusicDuration checks a requested session length. Sessions hold a
// streaming connection open for their full duration, so the ceiling matters.
func ValidateMusicDuration(d time.Duration) error {
	if d < MinMusicDuration || d > MaxMusicDuration {
		return fmt.Errorf("duration must be between %v and %v, got %v",
			MinMusicDuration, MaxMusicDuration, d)
	}
	return nil
}

// ValidatePrompts checks weighted prompts against Lyria's accepted ranges.
func ValidatePrompts(prompts []WeightedPrompt) error {
	if len(prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}
	if len(prompts) > MaxMusicPrompts {
		return fmt.Errorf("at most %d prompts are allowed, got %d", MaxMusicPrompts, len(prompts))
	}
	for _, p := range prompts {
		if p.Text == "" {
			return fmt.Errorf("prompt text must not be empty")
		}
		if p.Weight <= 0 || p.Weight > 5 {
			return fmt.Errorf("prompt weight must be in (0, 5], got %g", p.Weight)
		}
	}
	return nil
}

// Generate runs a session for the given duration and returns the collected
// audio. The context bounds the whole session including connection setup.
func (s *MusicService) Generate(ctx context.Context, prompts []WeightedPrompt, opts MusicOptions, duration time.Duration) (*MusicResult, error) {
	if err := ValidatePrompts(prompts); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	conn, _, err := s.dialer.DialContext(ctx, s.endpoint+"?key="+s.apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to music service: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(musicClientMessage{Setup: &musicSetup{Model: s.model}}); err != nil {
		return nil, fmt.Errorf("failed to send setup: %w", err)
	}

	// The server acknowledges setup before accepting content.
	conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	var ack musicServerMessage
	if err := conn.ReadJSON(&ack); err != nil {
		return nil, fmt.Errorf("setup handshake failed: %w", err)
	}
	if ack.SetupComplete == nil {
		return nil, fmt.Errorf("unexpected message before setup completion")
	}
	conn.SetReadDeadline(time.Time{})

	if err := conn.WriteJSON(musicClientMessage{ClientContent: &musicContent{WeightedPrompts: prompts}}); err != nil {
		return nil, fmt.Errorf("failed to send prompts: %w", err)
	}
	if err := conn.WriteJSON(musicClientMessage{Config: wireConfig(opts)}); err != nil {
		return nil, fmt.Errorf("failed to send config: %w", err)
	}
	if err := conn.WriteJSON(musicClientMessage{PlaybackControl: "PLAY"}); err != nil {
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}

	chunks := make(chan []byte, 64)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(chunks)
		for {
			var msg musicServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			if msg.ServerContent == nil {
				continue
			}
			for _, chunk := range msg.ServerContent.AudioChunks {
				// Once the collection window closes nobody drains the
				// channel; an unguarded send would pin this goroutine.
				select {
				case chunks <- chunk.Data:
				case <-done:
					return
				}
			}
		}
	}()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	var audio []byte
collect:
	for {
		select {
		case data, ok := <-chunks:
			if !ok {
				// Server closed the stream before the window elapsed.
				// Keep whatever was collected.
				break collect
			}
			audio = append(audio, data...)
		case <-timer.C:
			break collect
		case <-ctx.Done():
			conn.WriteJSON(musicClientMessage{PlaybackControl: "STOP"})
			return nil, ctx.Err()
		}
	}

	conn.WriteJSON(musicClientMessage{PlaybackControl: "STOP"})

	if len(audio) == 0 {
		select {
		case err := <-readErr:
			return nil, fmt.Errorf("music stream failed: %w", err)
		default:
			return nil, fmt.Errorf("music stream produced no audio")
		}
	}

	bytesPerSecond := musicSampleRateHz * musicChannels * (musicBitDepth / 8)
	actual := float64(len(audio)) / float64(bytesPerSecond)

	texts := make([]string, len(prompts))
	for i, p := range prompts {
		texts[i] = p.Text
	}

	slog.Info("Generated music clip",
		"duration_seconds", actual,
		"prompts", len(prompts),
		"model", s.model)

	return &MusicResult{
		Audio:           audio,
		SampleRateHz:    musicSampleRateHz,
		Channels:        musicChannels,
		BitDepth:        musicBitDepth,
		DurationSeconds: actual,
		Prompts:         texts,
	}, nil
}

func wireConfig(o MusicOptions) *musicWireConfig {
	return &musicWireConfig{
		BPM:                 o.BPM,
		Temperature:         o.Temperature,
		Guidance:            o.Guidance,
		Density:             o.Density,
		Brightness:          o.Brightness,
		Scale:               o.Scale,
		MuteBass:            o.MuteBass,
		MuteDrums:           o.MuteDrums,
		OnlyBassAndDrums:    o.OnlyBassAndDrums,
		MusicGenerationMode: o.Mode,
	}
}

// ModelName returns the configured music model.
func (s *MusicService) ModelName() string {
	return s.model
}
