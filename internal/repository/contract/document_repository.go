package contract

import (
	"context"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MarkDeleted flips the lifecycle status once teardown has finished.
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}
