package ai

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// CountTokens counts BPE tokens for a text. When no tokenizer is available
// for the model (or the encoding data cannot be loaded) it falls back to a
// four-characters-per-token estimate, which is close enough for truncation
// decisions.
func CountTokens(text, model string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// TruncateToTokenLimit trims text to at most maxTokens tokens. Long thread
// content is truncated before prompting so the completion request stays
// within the model's context window.
func TruncateToTokenLimit(text string, maxTokens int, model string) string {
	if maxTokens <= 0 {
		return ""
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		// Estimate: 4 characters per token.
		return truncateBytes(text, maxTokens*4)
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

// truncateBytes trims text to at most limit bytes, backing up to a rune
// boundary so a multi-byte sequence is never split.
func truncateBytes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
