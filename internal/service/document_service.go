package service

import (
	"context"
	"fmt"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/classification"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Show(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	UpdateClassification(ctx context.Context, tenantId uuid.UUID, req *dto.UpdateClassificationRequest) (*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.DeleteDocumentResponse, error)
	Scrape(ctx context.Context, tenantId uuid.UUID, req *dto.ScrapeRequest) (*dto.ScrapeResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func jobToStatusResponse(job *entity.IngestionJob) *dto.JobStatusResponse {
	return &dto.JobStatusResponse{
		Id:          job.Id,
		Kind:        job.Kind,
		DocumentId:  job.DocumentId,
		VersionId:   job.VersionId,
		Status:      job.Status,
		Stage:       job.Stage,
		Progress:    constant.JobProgress(job.Status, job.Stage),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		ErrorCode:   job.ErrorCode,
		LastError:   job.LastError,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		CreatedAt:   job.CreatedAt,
	}
}

func (s *documentService) buildShowResponse(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document) (*dto.ShowDocumentResponse, error) {
	versions, err := uow.DocumentVersionRepository().FindAll(ctx,
		specification.ByDocumentId{DocumentID: doc.Id},
		specification.OrderBy{Field: "version_number"},
	)
	if err != nil {
		return nil, err
	}

	versionResponses := make([]dto.DocumentVersionResponse, len(versions))
	for i, v := range versions {
		versionResponses[i] = dto.DocumentVersionResponse{
			Id:            v.Id,
			VersionNumber: v.VersionNumber,
			StorageKey:    v.StorageKey,
			ByteSize:      v.ByteSize,
			MimeType:      v.MimeType,
			ContentHash:   v.ContentHash,
			CreatedAt:     v.CreatedAt,
		}
	}

	jobs, err := uow.IngestionJobRepository().FindAll(ctx,
		specification.ByDocumentId{DocumentID: doc.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 1},
	)
	if err != nil {
		return nil, err
	}
	var latestJob *dto.JobStatusResponse
	if len(jobs) > 0 {
		latestJob = jobToStatusResponse(jobs[0])
	}

	return &dto.ShowDocumentResponse{
		Id:             doc.Id,
		Title:          doc.Title,
		SourceType:     doc.SourceType,
		Audience:       doc.Classification.Audience,
		ScopeType:      doc.Classification.ScopeType,
		ScopeId:        doc.Classification.ScopeId,
		DataClass:      doc.Classification.DataClass,
		ContainsPii:    doc.Classification.ContainsPii,
		AuthorityLevel: doc.Classification.AuthorityLevel,
		Status:         doc.Status,
		Versions:       versionResponses,
		LatestJob:      latestJob,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (s *documentService) Show(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.TenantOwnedBy{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.ErrNotFound
	}
	return s.buildShowResponse(ctx, uow, doc)
}

// UpdateClassification applies a partial classification change and runs the
// side effects the data_class transition demands: knowledge -> stored_only
// tears artifacts down and cancels in-flight jobs, stored_only -> knowledge
// re-enqueues ingestion of the latest version.
func (s *documentService) UpdateClassification(ctx context.Context, tenantId uuid.UUID, req *dto.UpdateClassificationRequest) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.DocumentId},
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

	before := doc.Classification
	after := before
	p := req.Classification
	if p.Audience != "" {
		after.Audience = p.Audience
	}
	if p.ScopeType != "" {
		after.ScopeType = p.ScopeType
		after.ScopeId = p.ScopeId
	}
	if p.DataClass != "" {
		after.DataClass = p.DataClass
	}
	if p.ContainsPii != nil {
		after.ContainsPii = *p.ContainsPii
	}
	if p.AuthorityLevel != "" {
		after.AuthorityLevel = p.AuthorityLevel
	}
	if err := classification.Validate(&after); err != nil {
		return nil, mapClassificationErr(err)
	}

	plan := classification.Transition(&before, &after)

	latest, err := uow.DocumentVersionRepository().FindOne(ctx,
		specification.ByDocumentId{DocumentID: doc.Id},
		specification.OrderBy{Field: "version_number", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	doc.Classification = after
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	var reingestJob *entity.IngestionJob
	if latest != nil {
		if plan.CancelActiveJobs {
			if _, err := uow.IngestionJobRepository().CancelActiveByVersion(ctx, latest.Id, constant.ErrCodeDataClassChanged); err != nil {
				return nil, err
			}
		}
		if plan.TeardownChunks {
			if err := uow.ChunkEmbeddingRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
				return nil, err
			}
			if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
				return nil, err
			}
		}
		if plan.EnqueueReingest && latest.ByteSize > 0 {
			// skip the enqueue when a job for this version is still in flight
			active, err := uow.IngestionJobRepository().CountNonTerminalByVersion(ctx, latest.Id)
			if err != nil {
				return nil, err
			}
			if active == 0 {
				reingestJob = &entity.IngestionJob{
					Id:          uuid.New(),
					TenantId:    tenantId,
					Kind:        constant.JobKindFile,
					DocumentId:  &doc.Id,
					VersionId:   &latest.Id,
					Status:      constant.JobStatusQueued,
					Stage:       constant.StageUploaded,
					MaxAttempts: constant.DefaultMaxAttempts,
					FileParams:  &entity.FileJobParams{VersionId: latest.Id},
					CreatedAt:   time.Now(),
				}
				if err := uow.IngestionJobRepository().Create(ctx, reingestJob); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if reingestJob != nil {
		if err := s.publisherService.PublishJobReady(ctx, reingestJob.Id); err != nil {
			fmt.Printf("[WARN] Failed to publish job-ready for %s: %v\n", reingestJob.Id, err)
		}
	}

	return s.buildShowResponse(ctx, uow, doc)
}

// Delete starts the two-phase delete: the document flips to deleted_pending
// immediately and queued jobs fail fast, while the sweeper removes artifacts
// asynchronously. Calling it again while pending (or after completion) just
// reports the current status.
func (s *documentService) Delete(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.TenantOwnedBy{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.ErrNotFound
	}
	if doc.Status != constant.DocumentStatusActive {
		return &dto.DeleteDocumentResponse{Id: doc.Id, Status: doc.Status}, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	doc.Status = constant.DocumentStatusDeletedPending
	doc.DeleteRequestedAt = &now
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	if _, err := uow.IngestionJobRepository().FailQueuedByDocument(ctx, doc.Id, constant.ErrCodeDocumentDeleted); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.DeleteDocumentResponse{Id: doc.Id, Status: doc.Status}, nil
}

// Scrape enqueues a page-scrape job. The scrape produces a knowledge entry
// keyed by source URL rather than a document, so re-scraping is idempotent.
func (s *documentService) Scrape(ctx context.Context, tenantId uuid.UUID, req *dto.ScrapeRequest) (*dto.ScrapeResponse, error) {
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	job := entity.IngestionJob{
		Id:          uuid.New(),
		TenantId:    tenantId,
		Kind:        constant.JobKindSiteScrape,
		Status:      constant.JobStatusQueued,
		Stage:       constant.StageReady,
		MaxAttempts: constant.DefaultMaxAttempts,
		ScrapeParams: &entity.SiteScrapeJobParams{
			URL:      req.URL,
			MaxPages: maxPages,
		},
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.IngestionJobRepository().Create(ctx, &job); err != nil {
		return nil, err
	}

	if err := s.publisherService.PublishJobReady(ctx, job.Id); err != nil {
		fmt.Printf("[WARN] Failed to publish job-ready for %s: %v\n", job.Id, err)
	}

	return &dto.ScrapeResponse{JobId: job.Id}, nil
}
