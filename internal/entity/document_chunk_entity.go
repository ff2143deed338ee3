package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id            uuid.UUID
	VersionId     uuid.UUID
	ChunkIndex    int
	TotalChunks   int
	Heading       string
	SourceLocator string
	Content       string
	CreatedAt     time.Time
}

// EmbeddingProvenance records exactly how a vector was produced. Any change to
// the normalization or the model must surface as a new PreprocessVersion so
// reconciliation can find stale rows.
type EmbeddingProvenance struct {
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingDim      int
	PreprocessVersion *string
	ContentHash       string
	EmbeddedAt        time.Time
}

type ChunkEmbedding struct {
	Id         uuid.UUID
	ChunkId    uuid.UUID
	Embedding  []float32
	Provenance EmbeddingProvenance
	CreatedAt  time.Time
}
