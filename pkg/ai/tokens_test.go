package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abcd", truncateBytes("abcdef", 4))
	assert.Equal(t, "abc", truncateBytes("abc", 10))
	assert.Equal(t, "", truncateBytes("abc", 0))

	// A cut landing inside a multi-byte rune backs up to the boundary.
	text := strings.Repeat("한", 10) // 3 bytes each
	for limit := 1; limit < len(text); limit++ {
		got := truncateBytes(text, limit)
		assert.True(t, utf8.ValidString(got), "limit %d produced invalid UTF-8", limit)
		assert.LessOrEqual(t, len(got), limit)
	}
}
