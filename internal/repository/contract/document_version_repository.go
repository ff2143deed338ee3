package contract

import (
	"context"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentVersionRepository interface {
	Create(ctx context.Context, version *entity.DocumentVersion) error
	// BackfillUpload writes size/hash once the physical upload is confirmed.
	// The only permitted mutation of a version after creation.
	BackfillUpload(ctx context.Context, id uuid.UUID, byteSize int64, contentHash string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentVersion, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentVersion, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
}
