package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns a canned completion and records the prompt.
type fakeProvider struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) ModelName() string { return "gpt-4o-mini" }
func (f *fakeProvider) Close() error      { return nil }

func TestService_Summarize(t *testing.T) {
	p := &fakeProvider{response: "  A discussion about Go generics.  "}
	svc := NewService(p)

	summary, err := svc.Summarize(context.Background(), "long thread content here")
	require.NoError(t, err)
	assert.Equal(t, "A discussion about Go generics.", summary)
	assert.Contains(t, p.lastPrompt, "long thread content here")
	assert.Contains(t, p.lastPrompt, "summarizes forum discussions")
}

func TestService_Answer(t *testing.T) {
	p := &fakeProvider{response: "Blue-green deployment was recommended."}
	svc := NewService(p)

	answer, err := svc.Answer(context.Background(),
		"The team compared rolling and blue-green deployments.",
		"What deployment strategy was recommended?")
	require.NoError(t, err)
	assert.Equal(t, "Blue-green deployment was recommended.", answer)
	assert.Contains(t, p.lastPrompt, "What deployment strategy was recommended?")
	assert.Contains(t, p.lastPrompt, "rolling and blue-green")
}

func TestService_Answer_ProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("upstream timeout")}
	svc := NewService(p)

	_, err := svc.Answer(context.Background(), "context", "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question answering failed")
}

func TestService_Rewrite(t *testing.T) {
	tests := []struct {
		name         string
		mode         RewriteMode
		targetLang   string
		wantInPrompt string
	}{
		{"clarity", RewriteClarity, "", "clearer and easier to understand"},
		{"shorten", RewriteShorten, "", "significantly shorter"},
		{"polite", RewritePolite, "", "polite and constructive"},
		{"translate_explicit", RewriteTranslate, "Japanese", "into Japanese"},
		{"translate_default", RewriteTranslate, "", "into Korean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{response: "rewritten"}
			svc := NewService(p)

			out, err := svc.Rewrite(context.Background(), "some text", tt.mode, tt.targetLang)
			require.NoError(t, err)
			assert.Equal(t, "rewritten", out)
			assert.Contains(t, p.lastPrompt, tt.wantInPrompt)
			assert.Contains(t, p.lastPrompt, "some text")
		})
	}
}

func TestService_Rewrite_InvalidMode(t *testing.T) {
	svc := NewService(&fakeProvider{})

	_, err := svc.Rewrite(context.Background(), "text", RewriteMode("uppercase"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported rewrite mode")
}

func TestRewriteMode_IsValid(t *testing.T) {
	assert.True(t, RewriteClarity.IsValid())
	assert.True(t, RewriteTranslate.IsValid())
	assert.False(t, RewriteMode("").IsValid())
	assert.False(t, RewriteMode("uppercase").IsValid())
}

func TestService_Moderate(t *testing.T) {
	p := &fakeProvider{response: `{"risk_score": 0.8, "reason_tags": ["harassment"], "explanation": "hostile tone"}`}
	svc := NewService(p)

	result, err := svc.Moderate(context.Background(), "some hostile content")
	require.NoError(t, err)
	assert.Equal(t, 0.8, result.RiskScore)
	assert.Equal(t, []string{"harassment"}, result.ReasonTags)
	assert.True(t, result.FlaggedForReview)
}

func TestParseModerationResult(t *testing.T) {
	t.Run("clean_json", func(t *testing.T) {
		result, err := parseModerationResult(`{"risk_score": 0.1, "reason_tags": [], "explanation": "fine"}`)
		require.NoError(t, err)
		assert.Equal(t, 0.1, result.RiskScore)
		assert.False(t, result.FlaggedForReview)
	})

	t.Run("json_wrapped_in_prose", func(t *testing.T) {
		raw := "Here is my analysis:\n```json\n{\"risk_score\": 0.6, \"reason_tags\": [\"spam\"], \"explanation\": \"promo\"}\n```\nLet me know."
		result, err := parseModerationResult(raw)
		require.NoError(t, err)
		assert.Equal(t, 0.6, result.RiskScore)
		assert.True(t, result.FlaggedForReview)
	})

	t.Run("threshold_boundary", func(t *testing.T) {
		result, err := parseModerationResult(`{"risk_score": 0.5, "reason_tags": [], "explanation": ""}`)
		require.NoError(t, err)
		assert.True(t, result.FlaggedForReview, "0.5 is flagged, threshold is inclusive")

		result, err = parseModerationResult(`{"risk_score": 0.49, "reason_tags": [], "explanation": ""}`)
		require.NoError(t, err)
		assert.False(t, result.FlaggedForReview)
	})

	t.Run("out_of_range_clamped", func(t *testing.T) {
		result, err := parseModerationResult(`{"risk_score": 1.7, "reason_tags": [], "explanation": ""}`)
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.RiskScore)

		result, err = parseModerationResult(`{"risk_score": -0.2, "reason_tags": [], "explanation": ""}`)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.RiskScore)
	})

	t.Run("missing_tags_default_empty", func(t *testing.T) {
		result, err := parseModerationResult(`{"risk_score": 0.2}`)
		require.NoError(t, err)
		assert.NotNil(t, result.ReasonTags)
		assert.Empty(t, result.ReasonTags)
	})

	t.Run("missing_risk_score", func(t *testing.T) {
		_, err := parseModerationResult(`{"reason_tags": []}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing risk_score")
	})

	t.Run("no_json", func(t *testing.T) {
		_, err := parseModerationResult("I cannot analyze this content.")
		require.Error(t, err)
	})
}

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Hello {name}, welcome to {place}.", map[string]string{
		"name":  "tester",
		"place": "agora",
	})
	assert.Equal(t, "Hello tester, welcome to agora.", out)
}

func TestTruncateToTokenLimit(t *testing.T) {
	short := "a short sentence"
	assert.Equal(t, short, TruncateToTokenLimit(short, 100, "gpt-4o-mini"))

	long := strings.Repeat("word ", 5000)
	truncated := TruncateToTokenLimit(long, 100, "gpt-4o-mini")
	assert.Less(t, len(truncated), len(long))

	assert.Equal(t, "", TruncateToTokenLimit(long, 0, "gpt-4o-mini"))
}

func TestCountTokens(t *testing.T) {
	n := CountTokens("hello world, this is a test", "gpt-4o-mini")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 30)
}
