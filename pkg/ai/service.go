package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// RewriteMode selects how Rewrite transforms text.
type RewriteMode string

const (
	RewriteClarity   RewriteMode = "clarity"
	RewriteShorten   RewriteMode = "shorten"
	RewritePolite    RewriteMode = "polite"
	RewriteTranslate RewriteMode = "translate"
)

// DefaultTargetLanguage is used by translate mode when the request does not
// name one.
const DefaultTargetLanguage = "Korean"

// flagThreshold is the risk score at or above which content is flagged for
// human review.
const flagThreshold = 0.5

// maxPromptTokens bounds how much thread content goes into a prompt.
const maxPromptTokens = 4000

// IsValid reports whether the mode is one of the supported rewrite modes.
func (m RewriteMode) IsValid() bool {
	switch m {
	case RewriteClarity, RewriteShorten, RewritePolite, RewriteTranslate:
		return true
	}
	return false
}

// ModerationResult is the parsed output of a moderation check.
type ModerationResult struct {
	// RiskScore ranges from 0.0 (safe) to 1.0 (high risk).
	RiskScore float64 `json:"risk_score"`

	// ReasonTags lists concern categories (spam, harassment, hate_speech,
	// explicit, violence, misinformation, off_topic).
	ReasonTags []string `json:"reason_tags"`

	// Explanation is a brief assessment.
	Explanation string `json:"explanation"`

	// FlaggedForReview is true when RiskScore >= 0.5.
	FlaggedForReview bool `json:"flagged_for_review"`
}

// Service exposes the AI text features over a completion Provider.
type Service struct {
	provider Provider
}

// NewService creates an AI service.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Summarize produces a concise summary of thread content.
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	content = TruncateToTokenLimit(content, maxPromptTokens, s.provider.ModelName())

	prompt := renderTemplate(summarizerTemplate, map[string]string{
		"thread_content": content,
	})

	summary, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// Answer answers a question using only the provided discussion context.
func (s *Service) Answer(ctx context.Context, contextText, question string) (string, error) {
	contextText = TruncateToTokenLimit(contextText, maxPromptTokens, s.provider.ModelName())

	prompt := renderTemplate(qaTemplate, map[string]string{
		"context":  contextText,
		"question": question,
	})

	answer, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("question answering failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Rewrite transforms text according to the mode. For translate mode an
// empty targetLanguage falls back to DefaultTargetLanguage; other modes
// ignore it.
func (s *Service) Rewrite(ctx context.Context, text string, mode RewriteMode, targetLanguage string) (string, error) {
	var template string
	vars := map[string]string{"text": text}

	switch mode {
	case RewriteClarity:
		template = rewriteClarityTemplate
	case RewriteShorten:
		template = rewriteShortenTemplate
	case RewritePolite:
		template = rewritePoliteTemplate
	case RewriteTranslate:
		template = rewriteTranslateTemplate
		if targetLanguage == "" {
			targetLanguage = DefaultTargetLanguage
		}
		vars["target_language"] = targetLanguage
	default:
		return "", fmt.Errorf("unsupported rewrite mode: %s", mode)
	}

	rewritten, err := s.provider.Complete(ctx, renderTemplate(template, vars))
	if err != nil {
		return "", fmt.Errorf("rewrite failed: %w", err)
	}
	return strings.TrimSpace(rewritten), nil
}

// Moderate scores content against community guidelines.
func (s *Service) Moderate(ctx context.Context, content string) (*ModerationResult, error) {
	prompt := renderTemplate(moderationTemplate, map[string]string{
		"content": content,
	})

	raw, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("moderation failed: %w", err)
	}

	result, err := parseModerationResult(raw)
	if err != nil {
		return nil, fmt.Errorf("moderation failed: %w", err)
	}
	return result, nil
}

// parseModerationResult extracts and validates the moderation JSON. Models
// sometimes wrap the JSON in prose or code fences, so it scans for the
// outermost object instead of decoding the raw string.
func parseModerationResult(raw string) (*ModerationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in moderation result")
	}

	var parsed struct {
		RiskScore   *float64 `json:"risk_score"`
		ReasonTags  []string `json:"reason_tags"`
		Explanation string   `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("invalid moderation JSON: %w", err)
	}
	if parsed.RiskScore == nil {
		return nil, fmt.Errorf("missing risk_score in moderation result")
	}

	score := *parsed.RiskScore
	if score < 0 || score > 1 {
		slog.Warn("Moderation risk score out of range, clamping", "score", score)
		score = max(0, min(1, score))
	}

	tags := parsed.ReasonTags
	if tags == nil {
		tags = []string{}
	}

	return &ModerationResult{
		RiskScore:        score,
		ReasonTags:       tags,
		Explanation:      parsed.Explanation,
		FlaggedForReview: score >= flagThreshold,
	}, nil
}
