// Package reconcile rebuilds embeddings whose preprocess version no longer
// matches the active recipe. It walks stale rows in batches, re-normalizes
// the source text, re-embeds and stamps the new provenance, so a model or
// normalization upgrade converges without a manual backfill.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/contract"
	"hebelki-knowledge-be/pkg/embedding"
	"hebelki-knowledge-be/pkg/ingest"

	"github.com/google/uuid"
)

// KnowledgeStore is the slice of the knowledge entry repository the
// reconciler needs.
type KnowledgeStore interface {
	Update(ctx context.Context, entry *entity.KnowledgeEntry) error
	FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*entity.KnowledgeEntry, error)
	CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error)
}

// ChunkStore is the slice of the chunk embedding repository the reconciler
// needs.
type ChunkStore interface {
	Update(ctx context.Context, embedding *entity.ChunkEmbedding) error
	FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*contract.StaleChunkEmbedding, error)
	CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error)
}

// Config holds tuning for a reconciliation run.
type Config struct {
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	Legacy     []string
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Result is the outcome of a run. Failed rows stay stale and are retried on
// the next run.
type Result struct {
	Processed int
	Failed    int
	Skipped   int
}

type Reconciler struct {
	knowledge KnowledgeStore
	chunks    ChunkStore
	provider  embedding.Provider
	recipe    ingest.Recipe
	config    *Config
}

func NewReconciler(
	knowledge KnowledgeStore,
	chunks ChunkStore,
	provider embedding.Provider,
	recipe ingest.Recipe,
	config *Config,
) *Reconciler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Reconciler{
		knowledge: knowledge,
		chunks:    chunks,
		provider:  provider,
		recipe:    recipe,
		config:    config,
	}
}

// Run reconciles stale rows for one tenant, or all tenants when tenantId is
// nil. A dry run only counts what a real run would touch.
func (r *Reconciler) Run(ctx context.Context, tenantId *uuid.UUID, batchSize int, dryRun bool) (*Result, error) {
	if batchSize <= 0 {
		batchSize = r.config.BatchSize
	}

	result := &Result{}

	if dryRun {
		_, staleKnowledge, err := r.knowledge.CountByPreprocess(ctx, r.recipe.PreprocessVersion, tenantId)
		if err != nil {
			return nil, err
		}
		_, staleChunks, err := r.chunks.CountByPreprocess(ctx, r.recipe.PreprocessVersion, tenantId)
		if err != nil {
			return nil, err
		}
		result.Skipped = int(staleKnowledge + staleChunks)
		return result, nil
	}

	if err := r.runKnowledge(ctx, tenantId, batchSize, result); err != nil {
		return result, err
	}
	if err := r.runChunks(ctx, tenantId, batchSize, result); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Reconciler) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.provider.Embed(ctx, texts)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", r.config.MaxRetries, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

func (r *Reconciler) runKnowledge(ctx context.Context, tenantId *uuid.UUID, batchSize int, result *Result) error {
	info := r.provider.Info()
	failed := map[uuid.UUID]bool{}

	for {
		entries, err := r.knowledge.FindStale(ctx, r.recipe.PreprocessVersion, r.config.Legacy, tenantId, batchSize)
		if err != nil {
			return err
		}

		// Rows that failed earlier in this run come back stale; keep only
		// fresh work so the loop terminates.
		batch := entries[:0]
		for _, e := range entries {
			if !failed[e.Id] {
				batch = append(batch, e)
			}
		}
		if len(batch) == 0 {
			return nil
		}

		texts := make([]string, len(batch))
		for i, e := range batch {
			normalized := ingest.NormalizeText(e.Content)
			texts[i] = ingest.EmbedText(e.Title, normalized)
		}

		vectors, err := r.embedBatch(ctx, texts)
		if err != nil {
			for _, e := range batch {
				failed[e.Id] = true
			}
			result.Failed += len(batch)
			continue
		}

		now := time.Now()
		version := r.recipe.PreprocessVersion
		for i, e := range batch {
			e.Embedding = vectors[i]
			e.EmbeddingProvider = info.Provider
			e.EmbeddingModel = info.Model
			e.EmbeddingDim = info.Dim
			e.PreprocessVersion = &version
			e.ContentHash = ingest.ContentHash(ingest.NormalizeText(e.Content))
			e.EmbeddedAt = &now

			if err := r.knowledge.Update(ctx, e); err != nil {
				failed[e.Id] = true
				result.Failed++
				continue
			}
			// empty rows get the version stamp so they stop surfacing, but
			// they carry no useful vector
			if strings.TrimSpace(e.Content) == "" {
				result.Skipped++
			} else {
				result.Processed++
			}
		}
	}
}

func (r *Reconciler) runChunks(ctx context.Context, tenantId *uuid.UUID, batchSize int, result *Result) error {
	info := r.provider.Info()
	failed := map[uuid.UUID]bool{}

	for {
		stale, err := r.chunks.FindStale(ctx, r.recipe.PreprocessVersion, r.config.Legacy, tenantId, batchSize)
		if err != nil {
			return err
		}

		batch := stale[:0]
		for _, s := range stale {
			if !failed[s.Embedding.Id] {
				batch = append(batch, s)
			}
		}
		if len(batch) == 0 {
			return nil
		}

		texts := make([]string, len(batch))
		for i, s := range batch {
			normalized := ingest.NormalizeText(s.ChunkContent)
			texts[i] = ingest.EmbedText(s.DocumentTitle, normalized)
		}

		vectors, err := r.embedBatch(ctx, texts)
		if err != nil {
			for _, s := range batch {
				failed[s.Embedding.Id] = true
			}
			result.Failed += len(batch)
			continue
		}

		now := time.Now()
		version := r.recipe.PreprocessVersion
		for i, s := range batch {
			emb := s.Embedding
			emb.Embedding = vectors[i]
			emb.Provenance.EmbeddingProvider = info.Provider
			emb.Provenance.EmbeddingModel = info.Model
			emb.Provenance.EmbeddingDim = info.Dim
			emb.Provenance.PreprocessVersion = &version
			emb.Provenance.ContentHash = ingest.ContentHash(ingest.NormalizeText(s.ChunkContent))
			emb.Provenance.EmbeddedAt = now

			if err := r.chunks.Update(ctx, emb); err != nil {
				failed[emb.Id] = true
				result.Failed++
				continue
			}
			result.Processed++
		}
	}
}
