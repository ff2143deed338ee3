package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/blob"
	"hebelki-knowledge-be/pkg/classification"

	"github.com/google/uuid"
)

type IUploadService interface {
	InitUpload(ctx context.Context, tenantId uuid.UUID, req *dto.InitUploadRequest) (*dto.InitUploadResponse, error)
	CompleteUpload(ctx context.Context, tenantId uuid.UUID, req *dto.CompleteUploadRequest) (*dto.CompleteUploadResponse, error)
}

type uploadService struct {
	uowFactory       unitofwork.RepositoryFactory
	blobGateway      blob.Gateway
	publisherService IPublisherService
	maxUploadBytes   int64
}

func NewUploadService(
	uowFactory unitofwork.RepositoryFactory,
	blobGateway blob.Gateway,
	publisherService IPublisherService,
	maxUploadBytes int64,
) IUploadService {
	return &uploadService{
		uowFactory:       uowFactory,
		blobGateway:      blobGateway,
		publisherService: publisherService,
		maxUploadBytes:   maxUploadBytes,
	}
}

func classificationFromPayload(p *dto.ClassificationPayload) entity.Classification {
	if p == nil {
		return entity.Classification{}
	}
	c := entity.Classification{
		Audience:       p.Audience,
		ScopeType:      p.ScopeType,
		ScopeId:        p.ScopeId,
		DataClass:      p.DataClass,
		AuthorityLevel: p.AuthorityLevel,
	}
	if p.ContainsPii != nil {
		c.ContainsPii = *p.ContainsPii
	}
	return c
}

func mapClassificationErr(err error) error {
	switch err.(type) {
	case *classification.InvalidEnumError:
		return fmt.Errorf("%w: %s", serverutils.ErrInvalidEnum, err.Error())
	case *classification.InvalidScopeError:
		return fmt.Errorf("%w: %s", serverutils.ErrInvalidScope, err.Error())
	default:
		return err
	}
}

func storageKey(tenantId, documentId uuid.UUID, versionNumber int) string {
	return fmt.Sprintf("tenants/%s/documents/%s/v%d", tenantId, documentId, versionNumber)
}

// InitUpload creates the document, its first version and its job in one
// transaction, then hands back a signed PUT URL. Knowledge documents get a
// pending_upload job that stays unclaimable until the upload is confirmed;
// stored_only documents get an already-skipped one.
func (s *uploadService) InitUpload(ctx context.Context, tenantId uuid.UUID, req *dto.InitUploadRequest) (*dto.InitUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	mimeType, ok := constant.SupportedUploadFormats[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", serverutils.ErrUnsupportedFormat, ext)
	}
	declared := strings.TrimSpace(strings.Split(req.ContentType, ";")[0])
	if declared != "" && declared != "application/octet-stream" && declared != mimeType {
		return nil, fmt.Errorf("%w: %s does not match %s", serverutils.ErrUnsupportedFormat, declared, ext)
	}

	class := classificationFromPayload(req.Classification)
	classification.ApplyDefaults(&class, ext)
	if err := classification.Validate(&class); err != nil {
		return nil, mapClassificationErr(err)
	}

	now := time.Now()
	doc := entity.Document{
		Id:             uuid.New(),
		TenantId:       tenantId,
		Title:          req.Title,
		SourceType:     constant.SourceTypeFile,
		Classification: class,
		Status:         constant.DocumentStatusActive,
		CreatedAt:      now,
	}
	version := entity.DocumentVersion{
		Id:            uuid.New(),
		DocumentId:    doc.Id,
		VersionNumber: 1,
		StorageKey:    storageKey(tenantId, doc.Id, 1),
		MimeType:      mimeType,
		CreatedAt:     now,
	}
	job := entity.IngestionJob{
		Id:          uuid.New(),
		TenantId:    tenantId,
		Kind:        constant.JobKindFile,
		DocumentId:  &doc.Id,
		VersionId:   &version.Id,
		Status:      constant.JobStatusQueued,
		Stage:       constant.StagePendingUpload,
		MaxAttempts: constant.DefaultMaxAttempts,
		FileParams:  &entity.FileJobParams{VersionId: version.Id},
		CreatedAt:   now,
	}
	// stored_only documents keep the original but never enter the pipeline;
	// the job is born terminal so pollers never see work that will not happen
	if class.DataClass == constant.DataClassStoredOnly {
		job.Status = constant.JobStatusDone
		job.Stage = constant.StageSkipped
		job.CompletedAt = &now
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}
	if err := uow.DocumentVersionRepository().Create(ctx, &version); err != nil {
		return nil, err
	}
	if err := uow.IngestionJobRepository().Create(ctx, &job); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	signed, err := s.blobGateway.IssueUploadURL(ctx, version.StorageKey, s.maxUploadBytes)
	if err != nil {
		return nil, err
	}

	return &dto.InitUploadResponse{
		DocumentId: doc.Id,
		VersionId:  version.Id,
		JobId:      job.Id,
		UploadURL:  signed.URL,
		ExpiresAt:  signed.ExpiresAt,
	}, nil
}

// CompleteUpload verifies the object actually landed in storage, backfills
// size and hash onto the version, and makes the job claimable. Repeating the
// call after a successful confirmation is a no-op.
func (s *uploadService) CompleteUpload(ctx context.Context, tenantId uuid.UUID, req *dto.CompleteUploadRequest) (*dto.CompleteUploadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	version, err := uow.DocumentVersionRepository().FindOne(ctx, specification.ByID{ID: req.VersionId})
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, serverutils.ErrNotFound
	}

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: version.DocumentId},
		specification.TenantOwnedBy{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.ErrNotFound
	}
	if doc.Status != constant.DocumentStatusActive {
		return nil, fmt.Errorf("%w: document is %s", serverutils.ErrInvalidState, doc.Status)
	}

	exists, err := s.blobGateway.Exists(ctx, version.StorageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, serverutils.ErrObjectNotFound
	}

	size, err := s.blobGateway.Stat(ctx, version.StorageKey)
	if err != nil {
		return nil, err
	}
	if req.ObservedSize != nil && *req.ObservedSize != size {
		return nil, fmt.Errorf("%w: observed size %d, stored %d", serverutils.ErrInvalidState, *req.ObservedSize, size)
	}

	job, err := uow.IngestionJobRepository().FindOne(ctx,
		specification.ByVersionId{VersionID: version.Id},
		specification.NonTerminalJob{},
	)
	if err != nil {
		return nil, err
	}

	if err := uow.DocumentVersionRepository().BackfillUpload(ctx, version.Id, size, req.ContentHash); err != nil {
		return nil, err
	}

	// stored_only documents keep the original but never enter the pipeline.
	// The job is usually terminal since init; a pending_upload one only shows
	// up when the document was reclassified between init and complete.
	if doc.Classification.DataClass == constant.DataClassStoredOnly {
		if job != nil && job.Stage == constant.StagePendingUpload {
			now := time.Now()
			job.Status = constant.JobStatusDone
			job.Stage = constant.StageSkipped
			job.CompletedAt = &now
			if err := uow.IngestionJobRepository().Update(ctx, job); err != nil {
				return nil, err
			}
		}
		if job == nil {
			// already terminal; report the latest job so repeats stay no-ops
			job, err = uow.IngestionJobRepository().FindOne(ctx,
				specification.ByVersionId{VersionID: version.Id},
				specification.OrderBy{Field: "created_at", Desc: true},
			)
			if err != nil {
				return nil, err
			}
			if job == nil {
				return nil, serverutils.ErrNotFound
			}
			return &dto.CompleteUploadResponse{JobId: job.Id, Status: job.Status, Stage: job.Stage}, nil
		}
		return &dto.CompleteUploadResponse{
			JobId:  job.Id,
			Status: constant.JobStatusDone,
			Stage:  constant.StageSkipped,
		}, nil
	}

	confirmed, err := uow.IngestionJobRepository().ConfirmUpload(ctx, version.Id)
	if err != nil {
		return nil, err
	}

	if job == nil {
		// already terminal; report the latest job for this version
		job, err = uow.IngestionJobRepository().FindOne(ctx,
			specification.ByVersionId{VersionID: version.Id},
			specification.OrderBy{Field: "created_at", Desc: true},
		)
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, serverutils.ErrNotFound
		}
		return &dto.CompleteUploadResponse{JobId: job.Id, Status: job.Status, Stage: job.Stage}, nil
	}

	status, stage := job.Status, job.Stage
	if confirmed {
		status, stage = constant.JobStatusQueued, constant.StageUploaded
		if err := s.publisherService.PublishJobReady(ctx, job.Id); err != nil {
			// wake-up only; the poll loop picks the job up regardless
			fmt.Printf("[WARN] Failed to publish job-ready for %s: %v\n", job.Id, err)
		}
	}

	return &dto.CompleteUploadResponse{
		JobId:  job.Id,
		Status: status,
		Stage:  stage,
	}, nil
}
