package contract

import (
	"context"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByVersionId(ctx context.Context, versionId uuid.UUID) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
}
