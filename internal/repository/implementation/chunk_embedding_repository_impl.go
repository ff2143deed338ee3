package implementation

import (
	"context"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/mapper"
	"hebelki-knowledge-be/internal/model"
	"hebelki-knowledge-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChunkEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkEmbeddingMapper
}

func NewChunkEmbeddingRepository(db *gorm.DB) contract.ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkEmbeddingMapper(),
	}
}

func (r *ChunkEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.ChunkEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkEmbeddingRepositoryImpl) Update(ctx context.Context, embedding *entity.ChunkEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteByVersionId(ctx context.Context, versionId uuid.UUID) error {
	subQuery := r.db.Table("document_chunks").Select("id").Where("version_id = ?", versionId)
	return r.db.WithContext(ctx).
		Where("chunk_id IN (?)", subQuery).
		Delete(&model.ChunkEmbedding{}).Error
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	versionQuery := r.db.Table("document_versions").Select("id").Where("document_id = ?", documentId)
	chunkQuery := r.db.Table("document_chunks").Select("id").Where("version_id IN (?)", versionQuery)
	return r.db.WithContext(ctx).
		Where("chunk_id IN (?)", chunkQuery).
		Delete(&model.ChunkEmbedding{}).Error
}

func (r *ChunkEmbeddingRepositoryImpl) FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*contract.StaleChunkEmbedding, error) {
	if limit <= 0 {
		limit = 100
	}

	type row struct {
		model.ChunkEmbedding
		ChunkContent  string
		DocumentTitle string
		TenantId      uuid.UUID
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select("chunk_embeddings.*, document_chunks.content AS chunk_content, documents.title AS document_title, documents.tenant_id AS tenant_id").
		Joins("JOIN document_chunks ON document_chunks.id = chunk_embeddings.chunk_id").
		Joins("JOIN document_versions ON document_versions.id = document_chunks.version_id").
		Joins("JOIN documents ON documents.id = document_versions.document_id").
		Where("documents.deleted_at IS NULL").
		Where("chunk_embeddings.preprocess_version IS NULL OR chunk_embeddings.preprocess_version IN ? OR chunk_embeddings.preprocess_version <> ?",
			legacy, currentVersion)

	if tenantId != nil {
		query = query.Where("documents.tenant_id = ?", *tenantId)
	}

	if err := query.Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	stale := make([]*contract.StaleChunkEmbedding, len(rows))
	for i, rw := range rows {
		stale[i] = &contract.StaleChunkEmbedding{
			Embedding:     r.mapper.ToEntity(&rw.ChunkEmbedding),
			ChunkContent:  rw.ChunkContent,
			DocumentTitle: rw.DocumentTitle,
			TenantId:      rw.TenantId,
		}
	}
	return stale, nil
}

func (r *ChunkEmbeddingRepositoryImpl) CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Table("chunk_embeddings").
			Joins("JOIN document_chunks ON document_chunks.id = chunk_embeddings.chunk_id").
			Joins("JOIN document_versions ON document_versions.id = document_chunks.version_id").
			Joins("JOIN documents ON documents.id = document_versions.document_id").
			Where("documents.deleted_at IS NULL")
		if tenantId != nil {
			q = q.Where("documents.tenant_id = ?", *tenantId)
		}
		return q
	}

	var current, stale int64
	if err := base().Where("chunk_embeddings.preprocess_version = ?", currentVersion).Count(&current).Error; err != nil {
		return 0, 0, err
	}
	if err := base().Where("chunk_embeddings.preprocess_version IS NULL OR chunk_embeddings.preprocess_version <> ?", currentVersion).Count(&stale).Error; err != nil {
		return 0, 0, err
	}
	return current, stale, nil
}
