package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/forumlab/agora/pkg/config"
)

func TestFirstImageBlob(t *testing.T) {
	blob := &genai.Blob{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Here is your image:"},
				{InlineData: blob},
			}}},
		},
	}

	assert.Same(t, blob, firstImageBlob(resp))
}

func TestFirstImageBlob_NoImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "sorry"}}}},
			{Content: nil},
		},
	}

	assert.Nil(t, firstImageBlob(resp))
}

func TestNewImageService_RequiresAPIKey(t *testing.T) {
	_, err := NewImageService(context.Background(), &config.MediaConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
