package contract

import (
	"context"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KnowledgeEntryRepository interface {
	Create(ctx context.Context, entry *entity.KnowledgeEntry) error
	Update(ctx context.Context, entry *entity.KnowledgeEntry) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpsertBySourceURL replaces the entry for a (tenant, source URL) pair so
	// re-scraping the same page is idempotent.
	UpsertBySourceURL(ctx context.Context, entry *entity.KnowledgeEntry) error

	FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*entity.KnowledgeEntry, error)
	CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error)
}
