package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeEntry struct {
	Id                uuid.UUID
	TenantId          uuid.UUID
	Title             string
	Content           string
	SourceURL         string
	Embedding         []float32
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingDim      int
	PreprocessVersion *string
	ContentHash       string
	EmbeddedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
