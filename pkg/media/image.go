// Package media provides image, video, and music generation backed by
// Google's generative media models.
package media

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/forumlab/agora/pkg/config"
)

// ImageResult holds a single generated or edited image.
type ImageResult struct {
	Data     []byte
	MIMEType string
	Model    string
}

// ImageService generates and edits images through a Gemini image model.
type ImageService struct {
	client *genai.Client
	model  string
}

// NewImageService creates an image service from media configuration.
func NewImageService(ctx context.Context, cfg *config.MediaConfig) (*ImageService, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image client: %w", err)
	}

	return &ImageService{
		client: client,
		model:  cfg.ImageModel,
	}, nil
}

// Generate produces an image from a text prompt.
func (s *ImageService) Generate(ctx context.Context, prompt string) (*ImageResult, error) {
	return s.generate(ctx, genai.Text(prompt))
}

// Edit produces a new image by applying the prompt to an input image.
func (s *ImageService) Edit(ctx context.Context, prompt string, image []byte, mimeType string) (*ImageResult, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	return s.generate(ctx, contents)
}

func (s *ImageService) generate(ctx context.Context, contents []*genai.Content) (*ImageResult, error) {
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	blob := firstImageBlob(resp)
	if blob == nil {
		return nil, ErrNoImage
	}

	return &ImageResult{
		Data:     blob.Data,
		MIMEType: blob.MIMEType,
		Model:    s.model,
	}, nil
}

// firstImageBlob returns the first inline image part of a response, or nil.
func firstImageBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// ModelName returns the configured image model.
func (s *ImageService) ModelName() string {
	return s.model
}
