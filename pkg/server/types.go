package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/forumlab/agora/pkg/ai"
	"github.com/forumlab/agora/pkg/forum"
	"github.com/forumlab/agora/pkg/media"
)

// Thread and comment DTOs.

type createThreadRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateThreadRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type createCommentRequest struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// AI request/response DTOs. Length bounds follow the public API contract.

type summarizeRequest struct {
	Content string `json:"content"`
}

func (r *summarizeRequest) Validate() error {
	return checkLength("content", r.Content, 10, 50000)
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type qaRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

func (r *qaRequest) Validate() error {
	if err := checkLength("context", r.Context, 10, 50000); err != nil {
		return err
	}
	return checkLength("question", r.Question, 3, 1000)
}

type qaResponse struct {
	Answer string `json:"answer"`
}

type rewriteRequest struct {
	Text           string `json:"text"`
	Mode           string `json:"mode"`
	TargetLanguage string `json:"target_language,omitempty"`
}

func (r *rewriteRequest) Validate() error {
	if err := checkLength("text", r.Text, 1, 10000); err != nil {
		return err
	}
	if !ai.RewriteMode(r.Mode).IsValid() {
		return fmt.Errorf("invalid mode %q", r.Mode)
	}
	return nil
}

type rewriteResponse struct {
	RewrittenText string `json:"rewritten_text"`
	Mode          string `json:"mode"`
}

type moderationRequest struct {
	Content string `json:"content"`
}

func (r *moderationRequest) Validate() error {
	return checkLength("content", r.Content, 1, 10000)
}

type moderationResponse struct {
	RiskScore        float64  `json:"risk_score"`
	ReasonTags       []string `json:"reason_tags"`
	Explanation      string   `json:"explanation"`
	FlaggedForReview bool     `json:"flagged_for_review"`
}

// Media DTOs.

type imageGenerateRequest struct {
	Prompt string `json:"prompt"`
}

func (r *imageGenerateRequest) Validate() error {
	return checkLength("prompt", r.Prompt, 1, 2000)
}

type imageResponse struct {
	B64JSON       string `json:"b64_json"`
	MIMEType      string `json:"mime_type"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

type videoConfig struct {
	AspectRatio      string `json:"aspect_ratio,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	DurationSeconds  int32  `json:"duration_seconds,omitempty"`
	NegativePrompt   string `json:"negative_prompt,omitempty"`
	PersonGeneration string `json:"person_generation,omitempty"`
	Seed             *int32 `json:"seed,omitempty"`
}

// options merges the request config over the defaults.
func (c *videoConfig) options() media.VideoOptions {
	opts := media.DefaultVideoOptions()
	if c == nil {
		return opts
	}
	if c.AspectRatio != "" {
		opts.AspectRatio = c.AspectRatio
	}
	if c.Resolution != "" {
		opts.Resolution = c.Resolution
	}
	if c.DurationSeconds != 0 {
		opts.DurationSeconds = c.DurationSeconds
	}
	if c.NegativePrompt != "" {
		opts.NegativePrompt = c.NegativePrompt
	}
	if c.PersonGeneration != "" {
		opts.PersonGeneration = c.PersonGeneration
	}
	opts.Seed = c.Seed
	return opts
}

type videoGenerateRequest struct {
	Prompt string       `json:"prompt"`
	Config *videoConfig `json:"config,omitempty"`
}

func (r *videoGenerateRequest) Validate() error {
	return checkLength("prompt", r.Prompt, 1, 2000)
}

type videoGenerateResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
}

type videoStatusResponse struct {
	OperationID string `json:"operation_id"`
	Done        bool   `json:"done"`
	Status      string `json:"status"`
	VideoB64    string `json:"video_b64,omitempty"`
	MIMEType    string `json:"mime_type,omitempty"`
	Error       string `json:"error_message,omitempty"`
}

type musicConfig struct {
	BPM              int      `json:"bpm,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	Guidance         *float64 `json:"guidance,omitempty"`
	Density          *float64 `json:"density,omitempty"`
	Brightness       *float64 `json:"brightness,omitempty"`
	Scale            string   `json:"scale,omitempty"`
	MuteBass         bool     `json:"mute_bass,omitempty"`
	MuteDrums        bool     `json:"mute_drums,omitempty"`
	OnlyBassAndDrums bool     `json:"only_bass_and_drums,omitempty"`
	Mode             string   `json:"music_generation_mode,omitempty"`
}

func (c *musicConfig) options() media.MusicOptions {
	opts := media.DefaultMusicOptions()
	if c == nil {
		return opts
	}
	if c.BPM != 0 {
		opts.BPM = c.BPM
	}
	if c.Temperature != nil {
		opts.Temperature = *c.Temperature
	}
	if c.Guidance != nil {
		opts.Guidance = *c.Guidance
	}
	opts.Density = c.Density
	opts.Brightness = c.Brightness
	if c.Scale != "" {
		opts.Scale = c.Scale
	}
	opts.MuteBass = c.MuteBass
	opts.MuteDrums = c.MuteDrums
	opts.OnlyBassAndDrums = c.OnlyBassAndDrums
	if c.Mode != "" {
		opts.Mode = c.Mode
	}
	return opts
}

type musicGenerateRequest struct {
	Prompts         []media.WeightedPrompt `json:"prompts"`
	Config          *musicConfig           `json:"config,omitempty"`
	DurationSeconds int                    `json:"duration_seconds,omitempty"`
}

type musicSimpleRequest struct {
	Prompt          string `json:"prompt"`
	BPM             int    `json:"bpm,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type musicResponse struct {
	AudioB64        string   `json:"audio_b64"`
	SampleRateHz    int      `json:"sample_rate_hz"`
	Channels        int      `json:"channels"`
	BitDepth        int      `json:"bit_depth"`
	DurationSeconds float64  `json:"duration_seconds"`
	PromptsUsed     []string `json:"prompts_used"`
}

// Quota status DTO.

type quotaStatusResponse struct {
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

func threadList(threads []*forum.Thread) []*forum.Thread {
	if threads == nil {
		return []*forum.Thread{}
	}
	return threads
}

func commentList(comments []*forum.Comment) []*forum.Comment {
	if comments == nil {
		return []*forum.Comment{}
	}
	return comments
}

func checkLength(field, value string, min, max int) error {
	n := len(strings.TrimSpace(value))
	if n < min {
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	if len(value) > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}
