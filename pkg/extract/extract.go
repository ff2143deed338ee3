// Package extract turns uploaded bytes into plain text. Failures split into
// terminal ones (unsupported or empty content, retrying cannot help) and
// transient ones (loader errors worth another attempt).
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tmc/langchaingo/documentloaders"
)

var (
	// ErrUnsupportedContent marks content no loader can handle. Terminal.
	ErrUnsupportedContent = errors.New("unsupported content type")
	// ErrEmptyContent marks content that parsed to nothing useful. Terminal.
	ErrEmptyContent = errors.New("document contains no extractable text")
)

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, declaredMime string) (string, error)
}

type loaderExtractor struct{}

func New() Extractor {
	return &loaderExtractor{}
}

func (e *loaderExtractor) Extract(ctx context.Context, r io.Reader, declaredMime string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", ErrEmptyContent
	}

	mime := resolveMime(raw, declaredMime)

	text, err := e.extractByMime(ctx, raw, mime)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// resolveMime trusts the declared type unless it is missing or generic, in
// which case the content is sniffed.
func resolveMime(raw []byte, declared string) string {
	declared = strings.TrimSpace(strings.Split(declared, ";")[0])
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	sniffed := mimetype.Detect(raw).String()
	return strings.TrimSpace(strings.Split(sniffed, ";")[0])
}

func (e *loaderExtractor) extractByMime(ctx context.Context, raw []byte, mime string) (string, error) {
	switch {
	case mime == "application/pdf":
		return loadDocs(ctx, documentloaders.NewPDF(bytes.NewReader(raw), int64(len(raw))))
	case mime == "text/html":
		return loadDocs(ctx, documentloaders.NewHTML(bytes.NewReader(raw)))
	case mime == "text/csv" || mime == "text/tab-separated-values":
		return loadDocs(ctx, documentloaders.NewCSV(bytes.NewReader(raw)))
	case strings.HasPrefix(mime, "text/") || mime == "application/json":
		return loadDocs(ctx, documentloaders.NewText(bytes.NewReader(raw)))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, mime)
	}
}

func loadDocs(ctx context.Context, loader documentloaders.Loader) (string, error) {
	docs, err := loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}

	var b strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.PageContent)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
