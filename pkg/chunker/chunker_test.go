package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("empty text yields no chunks", func(t *testing.T) {
		chunks, err := New().Split("   \n  ", "text/plain")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("short text is one chunk", func(t *testing.T) {
		chunks, err := New().Split("Opening hours: Mon-Fri 9-17.", "text/plain")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, 1, chunks[0].TotalChunks)
		assert.Equal(t, "Opening hours: Mon-Fri 9-17.", chunks[0].Content)
	})

	t.Run("long text is split with consistent totals", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 200; i++ {
			b.WriteString("The quick brown fox jumps over the lazy dog.\n\n")
		}
		chunks, err := NewWithSize(300, 50).Split(b.String(), "text/plain")
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, len(chunks), c.TotalChunks)
			assert.NotEmpty(t, c.Content)
			assert.LessOrEqual(t, len(c.Content), 300+50)
		}
	})

	t.Run("chunks carry character locators", func(t *testing.T) {
		text := "First paragraph about bookings.\n\nSecond paragraph about refunds."
		chunks, err := New().Split(text, "text/plain")
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.True(t, strings.HasPrefix(chunks[0].SourceLocator, "chars=0-"))
	})

	t.Run("markdown chunks inherit the nearest heading", func(t *testing.T) {
		text := "# Refund Policy\n\nRefunds are issued within 14 days.\n\n## Exceptions\n\nGift cards are non-refundable."
		chunks, err := New().Split(text, "text/markdown")
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.Equal(t, "Refund Policy", chunks[0].Heading)
	})

	t.Run("plain text carries no heading", func(t *testing.T) {
		chunks, err := New().Split("just some text", "text/plain")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Empty(t, chunks[0].Heading)
	})
}
