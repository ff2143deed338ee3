package unitofwork

import (
	"context"

	"hebelki-knowledge-be/internal/repository/contract"
)

// UnitOfWork groups the pipeline repositories behind one optional transaction.
// Cross-entity invariants (no embeddings for stored_only versions, one
// non-terminal job per version) are enforced by running the related mutations
// inside a single Begin/Commit pair.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentVersionRepository() contract.DocumentVersionRepository
	IngestionJobRepository() contract.IngestionJobRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository
	KnowledgeEntryRepository() contract.KnowledgeEntryRepository
}
