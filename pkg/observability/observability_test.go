package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsRecording(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, http.MethodGet, "/api/v1/threads", 200, 15*time.Millisecond)
	m.RecordAIRequest(ctx, "summarize", 300*time.Millisecond, nil)
	m.RecordAIRequest(ctx, "moderate", 100*time.Millisecond, errors.New("boom"))
	m.RecordQuotaDenial(ctx)

	body := scrape(t, m)
	assert.Contains(t, body, "agora_http_requests_total")
	assert.Contains(t, body, "agora_ai_requests_total")
	assert.Contains(t, body, "agora_ai_errors_total")
	assert.Contains(t, body, "agora_quota_denials_total")
	assert.Contains(t, body, `operation="summarize"`)
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics

	// Must not panic.
	m.RecordHTTPRequest(context.Background(), http.MethodGet, "/", 200, time.Millisecond)
	m.RecordAIRequest(context.Background(), "qa", time.Millisecond, nil)
	m.RecordQuotaDenial(context.Background())
	assert.NotNil(t, m.Handler())
}

func TestHTTPMiddleware(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	handler := HTTPMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t, m)
	assert.Contains(t, body, `status="418"`)
	assert.Contains(t, body, `path="/brew"`)
}
