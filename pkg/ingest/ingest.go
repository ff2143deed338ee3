// Package ingest holds the text preprocessing shared by the ingestion worker
// and the reconciliation job. Both must produce byte-identical embedding
// input for the same source content, otherwise reconciliation would silently
// change retrieval behavior.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Recipe pins the embedding configuration a vector was produced with. Two
// vectors are comparable only when their recipes match.
type Recipe struct {
	Provider          string
	Model             string
	Dim               int
	PreprocessVersion string
}

var (
	newlines    = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	trailingWs  = regexp.MustCompile(`[ \t]+\n`)
	interiorRun = regexp.MustCompile(`[ \t]{2,}`)
)

// NormalizeText is the canonical preprocessing step. It normalizes line
// endings, strips trailing whitespace, collapses interior space runs and
// caps blank-line runs at one. The output feeds both the chunker and the
// content hash, so any change here requires a new PreprocessVersion.
func NormalizeText(s string) string {
	s = newlines.Replace(s)
	s = trailingWs.ReplaceAllString(s, "\n")
	s = interiorRun.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ContentHash returns the hex sha256 of normalized content. Used for upload
// verification and for skipping re-embeds of unchanged chunks.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EmbedText builds the text actually sent to the embedding provider. The
// title header gives the vector document-level context the chunk body alone
// lacks; retrieval quality measurably drops without it.
func EmbedText(title, content string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return content
	}
	return "Title: " + title + "\n\n" + content
}
