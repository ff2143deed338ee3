package implementation

import (
	"context"
	"errors"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/mapper"
	"hebelki-knowledge-be/internal/model"
	"hebelki-knowledge-be/internal/repository/contract"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngestionJobRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IngestionJobMapper
}

func NewIngestionJobRepository(db *gorm.DB) contract.IngestionJobRepository {
	return &IngestionJobRepositoryImpl{
		db:     db,
		mapper: mapper.NewIngestionJobMapper(),
	}
}

func (r *IngestionJobRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IngestionJobRepositoryImpl) Create(ctx context.Context, job *entity.IngestionJob) error {
	m := r.mapper.ToModel(job)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*job = *r.mapper.ToEntity(m)
	return nil
}

func (r *IngestionJobRepositoryImpl) Update(ctx context.Context, job *entity.IngestionJob) error {
	m := r.mapper.ToModel(job)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*job = *r.mapper.ToEntity(m)
	return nil
}

func (r *IngestionJobRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionJob, error) {
	var m model.IngestionJob
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *IngestionJobRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.IngestionJob, error) {
	var models []*model.IngestionJob
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.IngestionJob, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *IngestionJobRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.IngestionJob{}).Count(&count).Error
	return count, err
}

// Claim is the compare-and-set at the heart of the worker contract: the UPDATE
// only matches while the job is still claimable, so two racing workers get
// exactly one winner (RowsAffected == 1).
func (r *IngestionJobRepositoryImpl) Claim(ctx context.Context, id uuid.UUID, retryBackoff time.Duration) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-retryBackoff)

	res := r.db.WithContext(ctx).
		Model(&model.IngestionJob{}).
		Where("id = ?", id).
		Where(
			r.db.Where("status = ? AND stage <> ?", constant.JobStatusQueued, constant.StagePendingUpload).
				Or("status = ? AND updated_at < ?", constant.JobStatusRetryReady, cutoff),
		).
		Updates(map[string]interface{}{
			"status":     constant.JobStatusProcessing,
			"stage":      constant.StageDownloading,
			"attempts":   gorm.Expr("attempts + 1"),
			"started_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *IngestionJobRepositoryImpl) FindClaimable(ctx context.Context, retryBackoff time.Duration, limit int) ([]*entity.IngestionJob, error) {
	if limit <= 0 {
		limit = 10
	}
	cutoff := time.Now().Add(-retryBackoff)

	var models []*model.IngestionJob
	err := r.db.WithContext(ctx).
		Where(
			r.db.Where("status = ? AND stage <> ?", constant.JobStatusQueued, constant.StagePendingUpload).
				Or("status = ? AND updated_at < ?", constant.JobStatusRetryReady, cutoff),
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entities := make([]*entity.IngestionJob, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *IngestionJobRepositoryImpl) ConfirmUpload(ctx context.Context, versionId uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.IngestionJob{}).
		Where("version_id = ? AND status = ? AND stage = ?",
			versionId, constant.JobStatusQueued, constant.StagePendingUpload).
		Update("stage", constant.StageUploaded)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *IngestionJobRepositoryImpl) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	return r.db.WithContext(ctx).
		Model(&model.IngestionJob{}).
		Where("id = ?", id).
		Update("stage", stage).Error
}

func (r *IngestionJobRepositoryImpl) CancelActiveByVersion(ctx context.Context, versionId uuid.UUID, errorCode string) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.IngestionJob{}).
		Where("version_id = ? AND status IN ?", versionId,
			[]string{constant.JobStatusQueued, constant.JobStatusProcessing, constant.JobStatusRetryReady}).
		Updates(map[string]interface{}{
			"status":       constant.JobStatusCancelled,
			"error_code":   errorCode,
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *IngestionJobRepositoryImpl) FailQueuedByDocument(ctx context.Context, documentId uuid.UUID, errorCode string) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.IngestionJob{}).
		Where("document_id = ? AND status IN ?", documentId,
			[]string{constant.JobStatusQueued, constant.JobStatusRetryReady}).
		Updates(map[string]interface{}{
			"status":       constant.JobStatusFailed,
			"error_code":   errorCode,
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *IngestionJobRepositoryImpl) CountNonTerminalByVersion(ctx context.Context, versionId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.IngestionJob{}).
		Where("version_id = ? AND status IN ?", versionId,
			[]string{constant.JobStatusQueued, constant.JobStatusProcessing, constant.JobStatusRetryReady}).
		Count(&count).Error
	return count, err
}
