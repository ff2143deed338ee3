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

type KnowledgeEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeEntryMapper
}

func NewKnowledgeEntryRepository(db *gorm.DB) contract.KnowledgeEntryRepository {
	return &KnowledgeEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeEntryMapper(),
	}
}

func (r *KnowledgeEntryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeEntryRepositoryImpl) Create(ctx context.Context, entry *entity.KnowledgeEntry) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeEntryRepositoryImpl) Update(ctx context.Context, entry *entity.KnowledgeEntry) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeEntryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error) {
	var m model.KnowledgeEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *KnowledgeEntryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error) {
	var models []*model.KnowledgeEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeEntry, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeEntryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeEntry{}).Count(&count).Error
	return count, err
}

func (r *KnowledgeEntryRepositoryImpl) UpsertBySourceURL(ctx context.Context, entry *entity.KnowledgeEntry) error {
	var existing model.KnowledgeEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_url = ?", entry.TenantId, entry.SourceURL).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.Create(ctx, entry)
		}
		return err
	}

	entry.Id = existing.Id
	entry.CreatedAt = existing.CreatedAt
	return r.Update(ctx, entry)
}

func (r *KnowledgeEntryRepositoryImpl) FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*entity.KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := r.db.WithContext(ctx).
		Where("preprocess_version IS NULL OR preprocess_version IN ? OR preprocess_version <> ?",
			legacy, currentVersion)
	if tenantId != nil {
		query = query.Where("tenant_id = ?", *tenantId)
	}

	var models []*model.KnowledgeEntry
	if err := query.Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.KnowledgeEntry, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeEntryRepositoryImpl) CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.KnowledgeEntry{})
		if tenantId != nil {
			q = q.Where("tenant_id = ?", *tenantId)
		}
		return q
	}

	var current, stale int64
	if err := base().Where("preprocess_version = ?", currentVersion).Count(&current).Error; err != nil {
		return 0, 0, err
	}
	if err := base().Where("preprocess_version IS NULL OR preprocess_version <> ?", currentVersion).Count(&stale).Error; err != nil {
		return 0, 0, err
	}
	return current, stale, nil
}
