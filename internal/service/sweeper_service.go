package service

import (
	"context"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/pkg/logger"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/blob"
	"hebelki-knowledge-be/pkg/events"
	pktNats "hebelki-knowledge-be/pkg/nats"
)

type ISweeperService interface {
	// SweepOnce finishes the second phase of pending deletes. Returns how many
	// documents were fully removed.
	SweepOnce(ctx context.Context) (int, error)
	// Run loops SweepOnce on the configured interval until ctx is done.
	Run(ctx context.Context, interval time.Duration)
}

type sweeperService struct {
	uowFactory     unitofwork.RepositoryFactory
	blobGateway    blob.Gateway
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewSweeperService(
	uowFactory unitofwork.RepositoryFactory,
	blobGateway blob.Gateway,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) ISweeperService {
	return &sweeperService{
		uowFactory:     uowFactory,
		blobGateway:    blobGateway,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *sweeperService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept, err := s.SweepOnce(ctx); err != nil {
				s.log.Error("sweeper", "Sweep failed", map[string]interface{}{"error": err.Error()})
			} else if swept > 0 {
				s.log.Info("sweeper", "Sweep finished", map[string]interface{}{"documents": swept})
			}
		}
	}
}

func (s *sweeperService) SweepOnce(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	pending, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByStatus{Status: constant.DocumentStatusDeletedPending},
	)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, doc := range pending {
		// A job still processing one of the document's versions may write
		// chunks concurrently; wait for it to reach a terminal status first.
		active, err := uow.IngestionJobRepository().Count(ctx,
			specification.ByDocumentId{DocumentID: doc.Id},
			specification.ByStatus{Status: constant.JobStatusProcessing},
		)
		if err != nil {
			return swept, err
		}
		if active > 0 {
			continue
		}

		if err := s.teardown(ctx, doc); err != nil {
			s.log.Error("sweeper", "Teardown failed", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       err.Error(),
			})
			continue
		}
		swept++

		if s.eventPublisher != nil {
			evt := events.NewDocumentDeleted(doc.TenantId, doc.Id)
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				s.log.Warn("sweeper", "Failed to publish DOCUMENT_DELETED", map[string]interface{}{
					"document_id": doc.Id.String(),
					"error":       err.Error(),
				})
			}
		}
	}
	return swept, nil
}

func (s *sweeperService) teardown(ctx context.Context, doc *entity.Document) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	versions, err := uow.DocumentVersionRepository().FindAll(ctx,
		specification.ByDocumentId{DocumentID: doc.Id},
	)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkEmbeddingRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	for _, v := range versions {
		if _, err := uow.IngestionJobRepository().CancelActiveByVersion(ctx, v.Id, constant.ErrCodeDocumentDeleted); err != nil {
			return err
		}
	}
	if err := uow.DocumentRepository().MarkDeleted(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	// Blob removal happens after the commit; a leaked object is recoverable,
	// a dangling DB row pointing at a deleted blob is not.
	for _, v := range versions {
		if err := s.blobGateway.Remove(ctx, v.StorageKey); err != nil {
			s.log.Warn("sweeper", "Failed to remove blob", map[string]interface{}{
				"storage_key": v.StorageKey,
				"error":       err.Error(),
			})
		}
	}
	return nil
}
