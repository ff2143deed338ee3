package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	t.Run("normalizes line endings", func(t *testing.T) {
		assert.Equal(t, "a\nb\nc", NormalizeText("a\r\nb\rc"))
	})

	t.Run("strips trailing whitespace per line", func(t *testing.T) {
		assert.Equal(t, "a\nb", NormalizeText("a   \nb\t\n"))
	})

	t.Run("collapses interior space runs", func(t *testing.T) {
		assert.Equal(t, "a b c", NormalizeText("a   b\t\tc"))
	})

	t.Run("caps blank line runs at one", func(t *testing.T) {
		assert.Equal(t, "a\n\nb", NormalizeText("a\n\n\n\n\nb"))
	})

	t.Run("trims the whole document", func(t *testing.T) {
		assert.Equal(t, "body", NormalizeText("\n\n  body  \n\n"))
	})

	t.Run("is idempotent", func(t *testing.T) {
		in := "  Opening  hours\r\n\r\n\r\nMon-Fri   9-17   \n"
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once))
	})
}

func TestContentHash(t *testing.T) {
	h := ContentHash("hello")
	assert.Len(t, h, 64)
	assert.Equal(t, h, ContentHash("hello"))
	assert.NotEqual(t, h, ContentHash("hello "))
}

func TestEmbedText(t *testing.T) {
	t.Run("prefixes the title header", func(t *testing.T) {
		assert.Equal(t, "Title: FAQ\n\nbody", EmbedText("FAQ", "body"))
	})

	t.Run("no header without a title", func(t *testing.T) {
		assert.Equal(t, "body", EmbedText("  ", "body"))
	})
}
