package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumlab/agora/pkg/config"
)

// fakeLyria runs a minimal BidiGenerateMusic peer: it acknowledges setup,
// waits for PLAY, then streams the configured audio chunks.
type fakeLyria struct {
	t      *testing.T
	chunks [][]byte

	// flood streams small chunks continuously after PLAY until the
	// connection drops, instead of sending the fixed chunks list.
	flood bool

	mu         sync.Mutex
	gotModel   string
	gotPrompts []WeightedPrompt
	gotConfig  *musicWireConfig
}

func (f *fakeLyria) recorded() (string, []WeightedPrompt, *musicWireConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotModel, f.gotPrompts, f.gotConfig
}

func (f *fakeLyria) handler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	require.NoError(f.t, err)
	defer conn.Close()

	for {
		var msg musicClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch {
		case msg.Setup != nil:
			f.mu.Lock()
			f.gotModel = msg.Setup.Model
			f.mu.Unlock()
			require.NoError(f.t, conn.WriteJSON(musicServerMessage{SetupComplete: &struct{}{}}))
		case msg.ClientContent != nil:
			f.mu.Lock()
			f.gotPrompts = msg.ClientContent.WeightedPrompts
			f.mu.Unlock()
		case msg.Config != nil:
			f.mu.Lock()
			f.gotConfig = msg.Config
			f.mu.Unlock()
		case msg.PlaybackControl == "PLAY":
			if f.flood {
				chunk := make([]byte, 1024)
				for {
					err := conn.WriteJSON(musicServerMessage{
						ServerContent: &musicServerContent{
							AudioChunks: []musicAudioChunk{{Data: chunk}},
						},
					})
					if err != nil {
						return
					}
				}
			}
			for _, chunk := range f.chunks {
				err := conn.WriteJSON(musicServerMessage{
					ServerContent: &musicServerContent{
						AudioChunks: []musicAudioChunk{{Data: chunk}},
					},
				})
				require.NoError(f.t, err)
			}
		case msg.PlaybackControl == "STOP":
			return
		}
	}
}

func newTestMusicService(t *testing.T, fake *fakeLyria) *MusicService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	svc, err := NewMusicService(
		&config.MediaConfig{APIKey: "test-key", MusicModel: "models/lyria-realtime-exp"},
		WithMusicEndpoint(endpoint),
	)
	require.NoError(t, err)
	return svc
}

func TestMusicService_Generate(t *testing.T) {
	fake := &fakeLyria{t: t, chunks: [][]byte{
		make([]byte, 192000), // one second of PCM16 stereo at 48kHz
		make([]byte, 96000),  // half a second
	}}
	svc := newTestMusicService(t, fake)

	prompts := []WeightedPrompt{
		{Text: "minimal techno with deep bass", Weight: 1.0},
		{Text: "ambient pads", Weight: 0.5},
	}
	opts := DefaultMusicOptions()
	opts.BPM = 128

	result, err := svc.Generate(context.Background(), prompts, opts, 500*time.Millisecond)
	require.NoError(t, err)

	assert.Len(t, result.Audio, 288000)
	assert.InDelta(t, 1.5, result.DurationSeconds, 0.001)
	assert.Equal(t, 48000, result.SampleRateHz)
	assert.Equal(t, 2, result.Channels)
	assert.Equal(t, 16, result.BitDepth)
	assert.Equal(t, []string{"minimal techno with deep bass", "ambient pads"}, result.Prompts)

	gotModel, gotPrompts, gotConfig := fake.recorded()
	assert.Equal(t, "models/lyria-realtime-exp", gotModel)
	assert.Equal(t, prompts, gotPrompts)
	if assert.NotNil(t, gotConfig) {
		assert.Equal(t, 128, gotConfig.BPM)
		assert.Equal(t, "QUALITY", gotConfig.MusicGenerationMode)
	}
}

func TestMusicService_Generate_NoAudio(t *testing.T) {
	fake := &fakeLyria{t: t}
	svc := newTestMusicService(t, fake)

	_, err := svc.Generate(context.Background(),
		[]WeightedPrompt{{Text: "jazz", Weight: 1.0}},
		DefaultMusicOptions(), 100*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio")
}

func TestMusicService_Generate_Validation(t *testing.T) {
	svc, err := NewMusicService(&config.MediaConfig{APIKey: "k", MusicModel: "m"})
	require.NoError(t, err)

	ctx := context.Background()
	opts := DefaultMusicOptions()

	_, err = svc.Generate(ctx, nil, opts, time.Second)
	assert.ErrorContains(t, err, "at least one prompt")

	_, err = svc.Generate(ctx, []WeightedPrompt{{Text: "", Weight: 1}}, opts, time.Second)
	assert.ErrorContains(t, err, "must not be empty")

	_, err = svc.Generate(ctx, []WeightedPrompt{{Text: "x", Weight: 9}}, opts, time.Second)
	assert.ErrorContains(t, err, "weight")

	many := make([]WeightedPrompt, 6)
	for i := range many {
		many[i] = WeightedPrompt{Text: "x", Weight: 1}
	}
	_, err = svc.Generate(ctx, many, opts, time.Second)
	assert.ErrorContains(t, err, "at most 5 prompts")

	bad := DefaultMusicOptions()
	bad.BPM = 500
	_, err = svc.Generate(ctx, []WeightedPrompt{{Text: "x", Weight: 1}}, bad, time.Second)
	assert.ErrorContains(t, err, "bpm")

	bad = DefaultMusicOptions()
	bad.Mode = "LOUD"
	_, err = svc.Generate(ctx, []WeightedPrompt{{Text: "x", Weight: 1}}, bad, time.Second)
	assert.ErrorContains(t, err, "generation mode")
}

func TestMusicService_Generate_ReaderExitsAfterWindow(t *testing.T) {
	fake := &fakeLyria{t: t, flood: true}
	svc := newTestMusicService(t, fake)

	before := runtime.NumGoroutine()
	result, err := svc.Generate(context.Background(),
		[]WeightedPrompt{{Text: "drone", Weight: 1}},
		DefaultMusicOptions(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Audio)

	// The stream reader must not stay pinned sending into a channel
	// nobody drains once the collection window has closed.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestValidateMusicDuration(t *testing.T) {
	assert.NoError(t, ValidateMusicDuration(5*time.Second))
	assert.NoError(t, ValidateMusicDuration(120*time.Second))
	assert.Error(t, ValidateMusicDuration(4*time.Second))
	assert.Error(t, ValidateMusicDuration(121*time.Second))
	assert.Error(t, ValidateMusicDuration(-time.Second))
}

func TestNewMusicService_RequiresAPIKey(t *testing.T) {
	_, err := NewMusicService(&config.MediaConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
