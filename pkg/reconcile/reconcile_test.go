package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/contract"
	"hebelki-knowledge-be/pkg/embedding"
	"hebelki-knowledge-be/pkg/ingest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls int
	fail  bool
}

func (p *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("provider down")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (p *fakeProvider) Info() embedding.ProviderInfo {
	return embedding.ProviderInfo{Provider: "fake", Model: "fake-embed", Dim: 3}
}

type fakeKnowledgeStore struct {
	entries   []*entity.KnowledgeEntry
	updateErr error
	updated   []*entity.KnowledgeEntry
}

func (s *fakeKnowledgeStore) Update(ctx context.Context, entry *entity.KnowledgeEntry) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, entry)
	return nil
}

func (s *fakeKnowledgeStore) FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*entity.KnowledgeEntry, error) {
	var stale []*entity.KnowledgeEntry
	for _, e := range s.entries {
		if e.PreprocessVersion == nil || *e.PreprocessVersion != currentVersion {
			stale = append(stale, e)
		}
		if len(stale) == limit {
			break
		}
	}
	return stale, nil
}

func (s *fakeKnowledgeStore) CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error) {
	var current, stale int64
	for _, e := range s.entries {
		if e.PreprocessVersion != nil && *e.PreprocessVersion == currentVersion {
			current++
		} else {
			stale++
		}
	}
	return current, stale, nil
}

type fakeChunkStore struct {
	rows    []*contract.StaleChunkEmbedding
	updated []*entity.ChunkEmbedding
}

func (s *fakeChunkStore) Update(ctx context.Context, emb *entity.ChunkEmbedding) error {
	s.updated = append(s.updated, emb)
	return nil
}

func (s *fakeChunkStore) FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*contract.StaleChunkEmbedding, error) {
	var stale []*contract.StaleChunkEmbedding
	for _, r := range s.rows {
		pv := r.Embedding.Provenance.PreprocessVersion
		if pv == nil || *pv != currentVersion {
			stale = append(stale, r)
		}
		if len(stale) == limit {
			break
		}
	}
	return stale, nil
}

func (s *fakeChunkStore) CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error) {
	var current, stale int64
	for _, r := range s.rows {
		pv := r.Embedding.Provenance.PreprocessVersion
		if pv != nil && *pv == currentVersion {
			current++
		} else {
			stale++
		}
	}
	return current, stale, nil
}

func testRecipe() ingest.Recipe {
	return ingest.Recipe{Provider: "fake", Model: "fake-embed", Dim: 3, PreprocessVersion: "v1"}
}

func staleEntry(title, content string) *entity.KnowledgeEntry {
	return &entity.KnowledgeEntry{
		Id:       uuid.New(),
		TenantId: uuid.New(),
		Title:    title,
		Content:  content,
	}
}

func staleChunkRow(title, content string) *contract.StaleChunkEmbedding {
	return &contract.StaleChunkEmbedding{
		Embedding:     &entity.ChunkEmbedding{Id: uuid.New(), ChunkId: uuid.New()},
		ChunkContent:  content,
		DocumentTitle: title,
		TenantId:      uuid.New(),
	}
}

func fastConfig() *Config {
	return &Config{BatchSize: 10, MaxRetries: 1, RetryDelay: time.Millisecond}
}

func TestReconcilerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("stale rows are re-embedded and stamped", func(t *testing.T) {
		knowledge := &fakeKnowledgeStore{entries: []*entity.KnowledgeEntry{
			staleEntry("FAQ", "Refunds within 14 days."),
			staleEntry("Hours", "Open 9-17."),
		}}
		chunks := &fakeChunkStore{rows: []*contract.StaleChunkEmbedding{
			staleChunkRow("Pricing", "Haircut costs 30."),
		}}

		r := NewReconciler(knowledge, chunks, &fakeProvider{}, testRecipe(), fastConfig())
		result, err := r.Run(ctx, nil, 10, false)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 0, result.Failed)
		require.Len(t, knowledge.updated, 2)
		for _, e := range knowledge.updated {
			require.NotNil(t, e.PreprocessVersion)
			assert.Equal(t, "v1", *e.PreprocessVersion)
			assert.Equal(t, "fake", e.EmbeddingProvider)
			assert.Equal(t, 3, e.EmbeddingDim)
			assert.NotEmpty(t, e.ContentHash)
			assert.NotNil(t, e.EmbeddedAt)
		}
		require.Len(t, chunks.updated, 1)
		assert.Equal(t, "v1", *chunks.updated[0].Provenance.PreprocessVersion)
	})

	t.Run("rows already current are untouched", func(t *testing.T) {
		version := "v1"
		current := staleEntry("FAQ", "body")
		current.PreprocessVersion = &version

		knowledge := &fakeKnowledgeStore{entries: []*entity.KnowledgeEntry{current}}
		chunks := &fakeChunkStore{}

		r := NewReconciler(knowledge, chunks, &fakeProvider{}, testRecipe(), fastConfig())
		result, err := r.Run(ctx, nil, 10, false)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Processed)
		assert.Empty(t, knowledge.updated)
	})

	t.Run("dry run counts without mutating", func(t *testing.T) {
		knowledge := &fakeKnowledgeStore{entries: []*entity.KnowledgeEntry{
			staleEntry("a", "x"), staleEntry("b", "y"),
		}}
		chunks := &fakeChunkStore{rows: []*contract.StaleChunkEmbedding{
			staleChunkRow("c", "z"),
		}}
		provider := &fakeProvider{}

		r := NewReconciler(knowledge, chunks, provider, testRecipe(), fastConfig())
		result, err := r.Run(ctx, nil, 10, true)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Skipped)
		assert.Equal(t, 0, result.Processed)
		assert.Zero(t, provider.calls)
		assert.Empty(t, knowledge.updated)
	})

	t.Run("provider failure counts rows failed and terminates", func(t *testing.T) {
		knowledge := &fakeKnowledgeStore{entries: []*entity.KnowledgeEntry{
			staleEntry("a", "x"), staleEntry("b", "y"),
		}}
		chunks := &fakeChunkStore{}

		r := NewReconciler(knowledge, chunks, &fakeProvider{fail: true}, testRecipe(), fastConfig())
		result, err := r.Run(ctx, nil, 10, false)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Failed)
		assert.Equal(t, 0, result.Processed)
		assert.Empty(t, knowledge.updated)
	})
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error {
			return errors.New("permanent")
		}, 2, time.Millisecond)
		assert.EqualError(t, err, "permanent")
	})

	t.Run("rejects non-positive attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})
}
