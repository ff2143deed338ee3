// Package chunker splits normalized document text into overlapping chunks
// sized for the embedding model context window.
package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 150
)

// Chunk is one embedding-sized slice of a document. Heading is the nearest
// preceding markdown heading, empty when none applies. SourceLocator is a
// character range into the normalized text, for citation display.
type Chunk struct {
	Index         int
	TotalChunks   int
	Heading       string
	SourceLocator string
	Content       string
}

// Chunker turns a normalized document into ordered chunks.
type Chunker interface {
	Split(text, mimeType string) ([]Chunk, error)
}

type recursiveChunker struct {
	chunkSize    int
	chunkOverlap int
}

func New() Chunker {
	return &recursiveChunker{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
}

func NewWithSize(chunkSize, chunkOverlap int) Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &recursiveChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

var markdownSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", " ", ""}
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

func (c *recursiveChunker) splitterFor(mimeType string) textsplitter.TextSplitter {
	seps := defaultSeparators
	if mimeType == "text/markdown" {
		seps = markdownSeparators
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
		textsplitter.WithSeparators(seps),
	)
}

func (c *recursiveChunker) Split(text, mimeType string) ([]Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	parts, err := c.splitterFor(mimeType).SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	cursor := 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		start := strings.Index(text[cursor:], part)
		locator := ""
		if start >= 0 {
			abs := cursor + start
			locator = charRange(abs, abs+len(part))
			// overlap means the next chunk may start before this one ends
			cursor = abs
		}
		chunks = append(chunks, Chunk{
			Heading:       headingFor(text, part, mimeType),
			SourceLocator: locator,
			Content:       part,
		})
	}

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks, nil
}

func charRange(start, end int) string {
	return fmt.Sprintf("chars=%d-%d", start, end)
}

// headingFor returns the nearest markdown heading preceding the chunk, or the
// chunk's own leading heading line.
func headingFor(text, chunk, mimeType string) string {
	if mimeType != "text/markdown" {
		return ""
	}
	if h, ok := leadingHeading(chunk); ok {
		return h
	}
	pos := strings.Index(text, chunk)
	if pos <= 0 {
		return ""
	}
	heading := ""
	for _, line := range strings.Split(text[:pos], "\n") {
		if h, ok := leadingHeading(line); ok {
			heading = h
		}
	}
	return heading
}

func leadingHeading(s string) (string, bool) {
	s = strings.TrimSpace(s)
	first := s
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first = s[:i]
	}
	trimmed := strings.TrimLeft(first, "#")
	if trimmed == first || !strings.HasPrefix(trimmed, " ") {
		return "", false
	}
	return strings.TrimSpace(trimmed), true
}
