package memory

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateContent(t *testing.T) {
	t.Run("shortTextUntouched", func(t *testing.T) {
		if got := truncateContent("hello"); got != "hello" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("longTextCapped", func(t *testing.T) {
		got := truncateContent(strings.Repeat("a", maxContentLength+100))
		if len(got) != maxContentLength {
			t.Errorf("expected %d bytes, got %d", maxContentLength, len(got))
		}
	})

	t.Run("runeBoundaryKept", func(t *testing.T) {
		// Place a multi-byte rune across the cap so a byte-wise cut would
		// split it.
		text := strings.Repeat("a", maxContentLength-1) + strings.Repeat("ä", 60)
		got := truncateContent(text)
		if len(got) > maxContentLength {
			t.Errorf("expected at most %d bytes, got %d", maxContentLength, len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncated text is not valid UTF-8: %q", got[len(got)-4:])
		}
	})
}
