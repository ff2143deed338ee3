package service

import (
	"context"
	"encoding/json"
	"time"

	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/pkg/logger"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/embedding"
	"hebelki-knowledge-be/pkg/events"
	"hebelki-knowledge-be/pkg/ingest"
	pktNats "hebelki-knowledge-be/pkg/nats"
	"hebelki-knowledge-be/pkg/reconcile"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const embeddingStatusCacheTTL = 60 * time.Second

type IReconcileService interface {
	Reconcile(ctx context.Context, req *dto.ReconcileRequest) (*dto.ReconcileResponse, error)
	EmbeddingStatus(ctx context.Context, tenantId *uuid.UUID) (*dto.EmbeddingStatusResponse, error)
}

type reconcileService struct {
	uowFactory     unitofwork.RepositoryFactory
	provider       embedding.Provider
	recipe         ingest.Recipe
	legacyVersions []string
	rdb            *redis.Client
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewReconcileService(
	uowFactory unitofwork.RepositoryFactory,
	provider embedding.Provider,
	recipe ingest.Recipe,
	legacyVersions []string,
	rdb *redis.Client,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IReconcileService {
	return &reconcileService{
		uowFactory:     uowFactory,
		provider:       provider,
		recipe:         recipe,
		legacyVersions: legacyVersions,
		rdb:            rdb,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *reconcileService) Reconcile(ctx context.Context, req *dto.ReconcileRequest) (*dto.ReconcileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	cfg := reconcile.DefaultConfig()
	cfg.Legacy = s.legacyVersions

	reconciler := reconcile.NewReconciler(
		uow.KnowledgeEntryRepository(),
		uow.ChunkEmbeddingRepository(),
		s.provider,
		s.recipe,
		cfg,
	)

	start := time.Now()
	result, err := reconciler.Run(ctx, req.TenantId, req.BatchSize, req.DryRun)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	s.log.Info("reconcile", "Reconciliation finished", map[string]interface{}{
		"processed": result.Processed,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
		"dry_run":   req.DryRun,
		"duration":  elapsed.String(),
	})

	if s.eventPublisher != nil && !req.DryRun {
		evt := events.NewReconcileFinished(result.Processed, result.Failed, result.Skipped, req.DryRun)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("reconcile", "Failed to publish RECONCILE_FINISHED", map[string]interface{}{"error": err.Error()})
		}
	}

	// status numbers changed, drop the cached report
	if s.rdb != nil && !req.DryRun {
		s.rdb.Del(ctx, s.statusCacheKey(req.TenantId))
	}

	return &dto.ReconcileResponse{
		Processed:  result.Processed,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}

func (s *reconcileService) statusCacheKey(tenantId *uuid.UUID) string {
	if tenantId == nil {
		return "embedding_status:all"
	}
	return "embedding_status:" + tenantId.String()
}

// EmbeddingStatus reports current-vs-stale counts. The counts scan two large
// tables, so results are cached for a minute.
func (s *reconcileService) EmbeddingStatus(ctx context.Context, tenantId *uuid.UUID) (*dto.EmbeddingStatusResponse, error) {
	cacheKey := s.statusCacheKey(tenantId)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var res dto.EmbeddingStatusResponse
			if json.Unmarshal([]byte(cached), &res) == nil {
				res.Cached = true
				return &res, nil
			}
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	knowledgeCurrent, knowledgeStale, err := uow.KnowledgeEntryRepository().CountByPreprocess(ctx, s.recipe.PreprocessVersion, tenantId)
	if err != nil {
		return nil, err
	}
	chunkCurrent, chunkStale, err := uow.ChunkEmbeddingRepository().CountByPreprocess(ctx, s.recipe.PreprocessVersion, tenantId)
	if err != nil {
		return nil, err
	}

	res := &dto.EmbeddingStatusResponse{
		TenantId:              tenantId,
		CurrentVersion:        s.recipe.PreprocessVersion,
		KnowledgeCurrent:      knowledgeCurrent,
		KnowledgeStale:        knowledgeStale,
		ChunkEmbeddingCurrent: chunkCurrent,
		ChunkEmbeddingStale:   chunkStale,
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(res); err == nil {
			s.rdb.Set(ctx, cacheKey, payload, embeddingStatusCacheTTL)
		}
	}
	return res, nil
}
