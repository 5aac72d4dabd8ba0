package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumlab/agora/pkg/ai"
	"github.com/forumlab/agora/pkg/auth"
	"github.com/forumlab/agora/pkg/config"
	"github.com/forumlab/agora/pkg/forum"
	"github.com/forumlab/agora/pkg/media"
	"github.com/forumlab/agora/pkg/observability"
	"github.com/forumlab/agora/pkg/quota"
)

// stubProvider returns a canned completion.
type stubProvider struct {
	response string
	err      error
}

func (p *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.response, p.err
}
func (p *stubProvider) ModelName() string { return "stub" }
func (p *stubProvider) Close() error      { return nil }

type testServer struct {
	srv   *Server
	guard *quota.Guard
}

func newTestServer(t *testing.T, provider ai.Provider, quotaLimit int64) *testServer {
	t.Helper()

	cfg := config.Default()

	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	guard, err := quota.NewGuard(quotaLimit, quota.NewMemoryStore())
	require.NoError(t, err)

	forumCfg := cfg.Forum
	deps := Dependencies{
		Forum:   forum.NewService(forum.NewMemoryStore(), &forumCfg),
		AI:      ai.NewService(provider),
		Guard:   guard,
		Metrics: metrics,
	}

	return &testServer{srv: NewServer(cfg, deps), guard: guard}
}

// do performs a request as the given user. An empty user is anonymous.
func (ts *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Subject: user}))
	}

	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)

	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)

	rec = ts.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestThreadCRUD(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/threads", "alice",
		createThreadRequest{Title: "Hello", Content: "First!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[forum.Thread](t, rec)
	assert.Equal(t, "alice", created.AuthorID)

	rec = ts.do(t, http.MethodGet, "/api/v1/threads/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/threads", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	threads := decodeBody[[]forum.Thread](t, rec)
	assert.Len(t, threads, 1)

	// non-owner updates are forbidden
	title := "hijack"
	rec = ts.do(t, http.MethodPut, "/api/v1/threads/"+created.ID, "mallory",
		updateThreadRequest{Title: &title})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/threads/"+created.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/threads/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateThreadRequiresAuth(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/threads", "",
		createThreadRequest{Title: "t", Content: "c"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommentLifecycle(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/threads", "alice",
		createThreadRequest{Title: "t", Content: "c"})
	require.Equal(t, http.StatusCreated, rec.Code)
	thread := decodeBody[forum.Thread](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/v1/comments", "bob",
		createCommentRequest{ThreadID: thread.ID, Content: "nice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decodeBody[forum.Comment](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/v1/comments/thread/"+thread.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	comments := decodeBody[[]forum.Comment](t, rec)
	require.Len(t, comments, 1)

	rec = ts.do(t, http.MethodPut, "/api/v1/comments/"+comment.ID, "bob",
		updateCommentRequest{Content: "even nicer"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/comments/"+comment.ID, "bob", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSummarize(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: "a concise summary"}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "alice",
		summarizeRequest{Content: strings.Repeat("long thread content. ", 5)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[summarizeResponse](t, rec)
	assert.Equal(t, "a concise summary", resp.Summary)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
}

func TestSummarizeValidation(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: "x"}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "alice",
		summarizeRequest{Content: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModerate(t *testing.T) {
	verdict := `{"risk_score": 0.8, "reason_tags": ["harassment"], "explanation": "hostile"}`
	ts := newTestServer(t, &stubProvider{response: verdict}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/moderate", "alice",
		moderationRequest{Content: "some hostile comment"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[moderationResponse](t, rec)
	assert.InDelta(t, 0.8, resp.RiskScore, 0.001)
	assert.True(t, resp.FlaggedForReview)
	assert.Equal(t, []string{"harassment"}, resp.ReasonTags)
}

func TestRewriteInvalidMode(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: "x"}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/rewrite", "alice",
		rewriteRequest{Text: "fix this", Mode: "shout"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotaExhaustion(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: "ok"}, 2)

	content := summarizeRequest{Content: strings.Repeat("words without end. ", 3)}
	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "alice", content)
		require.Equal(t, http.StatusOK, rec.Code, "request %d: %s", i, rec.Body.String())
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "alice", content)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "quota_exceeded")

	// Another user is unaffected.
	rec = ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "bob", content)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFailedAICallDoesNotBurnQuota(t *testing.T) {
	ts := newTestServer(t, &stubProvider{err: fmt.Errorf("upstream down")}, 5)

	content := summarizeRequest{Content: strings.Repeat("words without end. ", 3)}
	rec := ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "alice", content)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	remaining, err := ts.guard.Remaining(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(5), remaining)
}

func TestQuotaStatus(t *testing.T) {
	ts := newTestServer(t, &stubProvider{response: "ok"}, 5)

	content := summarizeRequest{Content: strings.Repeat("words without end. ", 3)}
	rec := ts.do(t, http.MethodPost, "/api/v1/ai/summarize", "alice", content)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/quota", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody[quotaStatusResponse](t, rec)
	assert.Equal(t, int64(5), status.Limit)
	assert.Equal(t, int64(1), status.Used)
	assert.Equal(t, int64(4), status.Remaining)
	assert.False(t, status.ResetsAt.IsZero())

	// Reading status never consumes quota.
	rec = ts.do(t, http.MethodGet, "/api/v1/quota", "alice", nil)
	status = decodeBody[quotaStatusResponse](t, rec)
	assert.Equal(t, int64(1), status.Used)
}

func TestMusicDurationOutOfRange(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)
	music, err := media.NewMusicService(&config.MediaConfig{APIKey: "k", MusicModel: "m"})
	require.NoError(t, err)
	ts.srv.deps.Music = music

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/music/generate", "alice",
		musicGenerateRequest{
			Prompts:         []media.WeightedPrompt{{Text: "lofi beats", Weight: 1}},
			DurationSeconds: 600,
		})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duration")

	rec = ts.do(t, http.MethodPost, "/api/v1/ai/music/generate-simple", "alice",
		musicSimpleRequest{Prompt: "lofi beats", DurationSeconds: 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duration")
}

func TestMediaNotConfigured(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)

	rec := ts.do(t, http.MethodPost, "/api/v1/ai/images/generate", "alice",
		imageGenerateRequest{Prompt: "a lighthouse"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_configured")

	rec = ts.do(t, http.MethodPost, "/api/v1/ai/videos/generate", "alice",
		videoGenerateRequest{Prompt: "a lighthouse at dusk"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/ai/music/generate-simple", "alice",
		musicSimpleRequest{Prompt: "lofi beats"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &stubProvider{}, 10)

	rec := ts.do(t, http.MethodOptions, "/api/v1/threads", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
