package media

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/forumlab/agora/pkg/config"
)

// Operation lifecycle states reported to clients.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// VideoOptions controls a video generation request.
type VideoOptions struct {
	AspectRatio      string // "16:9" or "9:16"
	Resolution       string // "720p" or "1080p"
	DurationSeconds  int32  // 4, 6 or 8
	NegativePrompt   string
	PersonGeneration string
	Seed             *int32
}

// DefaultVideoOptions returns the default generation settings.
func DefaultVideoOptions() VideoOptions {
	return VideoOptions{
		AspectRatio:      "16:9",
		Resolution:       "720p",
		DurationSeconds:  8,
		PersonGeneration: "allow_adult",
	}
}

// Validate checks option values against what the model accepts.
func (o *VideoOptions) Validate() error {
	switch o.AspectRatio {
	case "16:9", "9:16":
	default:
		return fmt.Errorf("invalid aspect_ratio %q", o.AspectRatio)
	}
	switch o.Resolution {
	case "720p", "1080p":
	default:
		return fmt.Errorf("invalid resolution %q", o.Resolution)
	}
	switch o.DurationSeconds {
	case 4, 6, 8:
	default:
		return fmt.Errorf("invalid duration_seconds %d", o.DurationSeconds)
	}
	switch o.PersonGeneration {
	case "allow_all", "allow_adult", "dont_allow":
	default:
		return fmt.Errorf("invalid person_generation %q", o.PersonGeneration)
	}
	if len(o.NegativePrompt) > 500 {
		return fmt.Errorf("negative_prompt exceeds 500 characters")
	}
	return nil
}

// VideoStatus is a point-in-time view of a generation operation.
type VideoStatus struct {
	ID       string
	Done     bool
	Status   string
	Video    []byte
	MIMEType string
	Error    string
}

// VideoService starts Veo generation operations and tracks them for polling.
// Operations live in process memory and expire after the configured TTL.
type VideoService struct {
	client *genai.Client
	model  string
	ops    *operationRegistry
}

// NewVideoService creates a video service from media configuration.
func NewVideoService(ctx context.Context, cfg *config.MediaConfig) (*VideoService, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create video client: %w", err)
	}

	return &VideoService{
		client: client,
		model:  cfg.VideoModel,
		ops:    newOperationRegistry(cfg.OperationTTL),
	}, nil
}

// Generate starts a text-to-video operation and returns its ID for polling.
func (s *VideoService) Generate(ctx context.Context, prompt string, opts VideoOptions) (string, error) {
	return s.start(ctx, prompt, nil, opts)
}

// GenerateFromImage starts an image-to-video operation.
func (s *VideoService) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string, opts VideoOptions) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return s.start(ctx, prompt, &genai.Image{ImageBytes: image, MIMEType: mimeType}, opts)
}

func (s *VideoService) start(ctx context.Context, prompt string, image *genai.Image, opts VideoOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	genConfig := &genai.GenerateVideosConfig{
		AspectRatio:      opts.AspectRatio,
		Resolution:       opts.Resolution,
		DurationSeconds:  genai.Ptr(opts.DurationSeconds),
		PersonGeneration: opts.PersonGeneration,
	}
	if opts.NegativePrompt != "" {
		genConfig.NegativePrompt = opts.NegativePrompt
	}
	if opts.Seed != nil {
		genConfig.Seed = opts.Seed
	}

	op, err := s.client.Models.GenerateVideos(ctx, s.model, prompt, image, genConfig)
	if err != nil {
		return "", fmt.Errorf("video generation failed to start: %w", err)
	}

	id := uuid.NewString()
	s.ops.put(id, op)
	slog.Info("Started video generation", "operation_id", id, "model", s.model)
	return id, nil
}

// Status refreshes and reports the state of a pending operation. Completed
// operations are removed from the registry once their video is returned.
func (s *VideoService) Status(ctx context.Context, id string) (*VideoStatus, error) {
	op, ok := s.ops.get(id)
	if !ok {
		return nil, ErrOperationNotFound
	}

	op, err := s.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh operation: %w", err)
	}
	s.ops.put(id, op)

	if !op.Done {
		return &VideoStatus{ID: id, Status: StatusProcessing}, nil
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		s.ops.remove(id)
		return &VideoStatus{ID: id, Done: true, Status: StatusFailed, Error: "operation produced no video"}, nil
	}

	video := op.Response.GeneratedVideos[0].Video
	data := video.VideoBytes
	if len(data) == 0 {
		data, err = s.client.Files.Download(ctx, video, nil)
		if err != nil {
			s.ops.remove(id)
			return &VideoStatus{ID: id, Done: true, Status: StatusFailed, Error: err.Error()}, nil
		}
	}

	s.ops.remove(id)
	return &VideoStatus{
		ID:       id,
		Done:     true,
		Status:   StatusCompleted,
		Video:    data,
		MIMEType: video.MIMEType,
	}, nil
}

// ModelName returns the configured video model.
func (s *VideoService) ModelName() string {
	return s.model
}

// SweepExpired evicts operations older than the configured TTL.
func (s *VideoService) SweepExpired() int {
	return s.ops.Sweep()
}

// operationRegistry tracks in-flight operations keyed by ID. Entries older
// than the TTL are evicted lazily on access and by Sweep.
type operationRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
	now     func() time.Time
}

type registryEntry struct {
	op      *genai.GenerateVideosOperation
	created time.Time
}

func newOperationRegistry(ttl time.Duration) *operationRegistry {
	return &operationRegistry{
		entries: make(map[string]*registryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *operationRegistry) put(id string, op *genai.GenerateVideosOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.op = op
		return
	}
	r.entries[id] = &registryEntry{op: op, created: r.now()}
}

func (r *operationRegistry) get(id string) (*genai.GenerateVideosOperation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	if r.expired(e) {
		delete(r.entries, id)
		return nil, false
	}
	return e.op, true
}

func (r *operationRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Sweep evicts expired entries and reports how many were removed.
func (r *operationRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

func (r *operationRegistry) expired(e *registryEntry) bool {
	return r.ttl > 0 && r.now().Sub(e.created) > r.ttl
}
