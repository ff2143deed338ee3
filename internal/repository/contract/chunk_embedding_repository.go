package contract

import (
	"context"

	"hebelki-knowledge-be/internal/entity"

	"github.com/google/uuid"
)

// StaleChunkEmbedding is a chunk embedding joined with the context needed to
// rebuild the exact text that was originally embedded (document title + chunk
// content, same header pattern as ingestion).
type StaleChunkEmbedding struct {
	Embedding     *entity.ChunkEmbedding
	ChunkContent  string
	DocumentTitle string
	TenantId      uuid.UUID
}

type ChunkEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error
	Update(ctx context.Context, embedding *entity.ChunkEmbedding) error
	DeleteByVersionId(ctx context.Context, versionId uuid.UUID) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error

	// FindStale returns embeddings whose preprocess version is NULL, a legacy
	// sentinel, or anything other than currentVersion.
	FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*StaleChunkEmbedding, error)

	// CountByPreprocess returns (current, stale) row counts for the dashboard.
	CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error)
}
