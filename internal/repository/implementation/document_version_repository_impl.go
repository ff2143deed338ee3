package implementation

import (
	"context"
	"errors"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/mapper"
	"hebelki-knowledge-be/internal/model"
	"hebelki-knowledge-be/internal/repository/contract"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentVersionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentVersionMapper
}

func NewDocumentVersionRepository(db *gorm.DB) contract.DocumentVersionRepository {
	return &DocumentVersionRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentVersionMapper(),
	}
}

func (r *DocumentVersionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentVersionRepositoryImpl) Create(ctx context.Context, version *entity.DocumentVersion) error {
	m := r.mapper.ToModel(version)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*version = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentVersionRepositoryImpl) BackfillUpload(ctx context.Context, id uuid.UUID, byteSize int64, contentHash string) error {
	updates := map[string]interface{}{
		"byte_size": byteSize,
	}
	if contentHash != "" {
		updates["content_hash"] = contentHash
	}
	return r.db.WithContext(ctx).
		Model(&model.DocumentVersion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *DocumentVersionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentVersion, error) {
	var m model.DocumentVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentVersionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentVersion, error) {
	var models []*model.DocumentVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("version_number ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DocumentVersion, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DocumentVersionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentVersion{}).Count(&count).Error
	return count, err
}

func (r *DocumentVersionRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Delete(&model.DocumentVersion{}).Error
}
