package service

import (
	"context"
	"fmt"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IJobService interface {
	Status(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.JobStatusResponse, error)
	Retry(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.RetryJobResponse, error)
}

type jobService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewJobService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService) IJobService {
	return &jobService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (s *jobService) Status(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.JobStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.IngestionJobRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.TenantOwnedBy{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, serverutils.ErrNotFound
	}
	return jobToStatusResponse(job), nil
}

// Retry re-queues a terminally failed job. Attempts already spent stay on the
// record; the budget is raised instead so the retry gets a fresh allowance.
func (s *jobService) Retry(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.RetryJobResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.IngestionJobRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.TenantOwnedBy{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, serverutils.ErrNotFound
	}
	if job.Status != constant.JobStatusFailed {
		return nil, fmt.Errorf("%w: only failed jobs can be retried (job is %s)", serverutils.ErrInvalidState, job.Status)
	}

	job.Status = constant.JobStatusQueued
	if job.Kind == constant.JobKindSiteScrape {
		job.Stage = constant.StageReady
	} else {
		job.Stage = constant.StageUploaded
	}
	job.MaxAttempts = job.Attempts + constant.DefaultMaxAttempts
	job.ErrorCode = ""
	job.LastError = ""
	job.StartedAt = nil
	job.CompletedAt = nil

	if err := uow.IngestionJobRepository().Update(ctx, job); err != nil {
		return nil, err
	}

	if err := s.publisherService.PublishJobReady(ctx, job.Id); err != nil {
		fmt.Printf("[WARN] Failed to publish job-ready for %s: %v\n", job.Id, err)
	}

	return &dto.RetryJobResponse{Id: job.Id, Status: job.Status, Stage: job.Stage}, nil
}
